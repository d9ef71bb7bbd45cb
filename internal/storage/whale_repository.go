package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/types"
)

// WhaleRepository handles whale record persistence.
type WhaleRepository struct {
	db *PostgresDB
}

// NewWhaleRepository creates a new whale repository
func NewWhaleRepository(db *PostgresDB) *WhaleRepository {
	return &WhaleRepository{db: db}
}

// whaleUpsertSQL implements the monotonic score rule: a lower incoming
// score leaves the stored score and confidence untouched. created_at is
// set once, on insert; updated_at advances on every call; trade counts
// accumulate.
const whaleUpsertSQL = `
	INSERT INTO whales (
		address, network, nickname, success_score, confidence_level,
		total_trades, is_active, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now())
	ON CONFLICT (address) DO UPDATE SET
		success_score    = GREATEST(whales.success_score, EXCLUDED.success_score),
		confidence_level = CASE
			WHEN EXCLUDED.success_score > whales.success_score THEN EXCLUDED.confidence_level
			ELSE whales.confidence_level
		END,
		total_trades = whales.total_trades + EXCLUDED.total_trades,
		is_active    = TRUE,
		updated_at   = now()
`

// Upsert writes one vetted candidate.
func (r *WhaleRepository) Upsert(ctx context.Context, upsert *models.WhaleUpsert) error {
	_, err := r.db.Pool().Exec(ctx, whaleUpsertSQL,
		upsert.Address,
		string(upsert.Network),
		upsert.Nickname,
		upsert.SuccessScore,
		string(types.ConfidenceForScore(upsert.SuccessScore)),
		upsert.MentionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert whale %s: %w", upsert.Address, err)
	}
	return nil
}

// UpsertBatch writes a refresh cycle's upserts. Each row is its own
// auto-committed statement; concurrent cycles are reconciled by the
// monotonic-max conflict rule, not by transaction isolation.
func (r *WhaleRepository) UpsertBatch(ctx context.Context, upserts []models.WhaleUpsert) error {
	for i := range upserts {
		if err := r.Upsert(ctx, &upserts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a whale by address. Returns nil when the whale does not
// exist.
func (r *WhaleRepository) Get(ctx context.Context, address string) (*models.WhaleRecord, error) {
	query := `
		SELECT address, network, nickname, success_score, confidence_level,
			   total_trades, is_active, created_at, updated_at
		FROM whales
		WHERE address = $1
	`

	var w models.WhaleRecord
	err := r.db.Pool().QueryRow(ctx, query, address).Scan(
		&w.Address,
		&w.Network,
		&w.Nickname,
		&w.SuccessScore,
		&w.ConfidenceLevel,
		&w.TotalTrades,
		&w.IsActive,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get whale %s: %w", address, err)
	}
	return &w, nil
}

// Top returns the highest-scoring active whales, newest update first
// within a score. An empty network returns all networks.
func (r *WhaleRepository) Top(ctx context.Context, limit int, network types.Network) ([]models.WhaleRecord, error) {
	query := `
		SELECT address, network, nickname, success_score, confidence_level,
			   total_trades, is_active, created_at, updated_at
		FROM whales
		WHERE is_active AND ($1 = '' OR network = $1)
		ORDER BY success_score DESC, updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, string(network), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top whales: %w", err)
	}
	defer rows.Close()

	var whales []models.WhaleRecord
	for rows.Next() {
		var w models.WhaleRecord
		if err := rows.Scan(
			&w.Address,
			&w.Network,
			&w.Nickname,
			&w.SuccessScore,
			&w.ConfidenceLevel,
			&w.TotalTrades,
			&w.IsActive,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan whale row: %w", err)
		}
		whales = append(whales, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read whale rows: %w", err)
	}
	return whales, nil
}

// Deactivate hides a whale from reads without losing its history.
func (r *WhaleRepository) Deactivate(ctx context.Context, address string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE whales SET is_active = FALSE, updated_at = now() WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to deactivate whale %s: %w", address, err)
	}
	if tag.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "WHALE_NOT_FOUND",
			Message: fmt.Sprintf("no whale with address %s", address),
		}
	}
	return nil
}

// Stats summarizes the active population per network.
type Stats struct {
	TotalActive  int            `json:"total_active"`
	ByNetwork    map[string]int `json:"by_network"`
	AverageScore float64        `json:"average_score"`
}

// GetStats computes population stats over active whales.
func (r *WhaleRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByNetwork: make(map[string]int)}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT network, COUNT(*) FROM whales WHERE is_active GROUP BY network`)
	if err != nil {
		return nil, fmt.Errorf("failed to query whale stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var network string
		var count int
		if err := rows.Scan(&network, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByNetwork[network] = count
		stats.TotalActive += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats rows: %w", err)
	}

	if stats.TotalActive > 0 {
		err = r.db.Pool().QueryRow(ctx,
			`SELECT AVG(success_score) FROM whales WHERE is_active`).Scan(&stats.AverageScore)
		if err != nil {
			return nil, fmt.Errorf("failed to compute average score: %w", err)
		}
	}
	return stats, nil
}
