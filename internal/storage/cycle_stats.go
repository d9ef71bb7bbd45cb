package storage

import (
	"context"
	"fmt"

	"github.com/whale-tracker/internal/models"
)

// CycleStatsRepository records refresh cycle outcomes in ClickHouse for
// offline analysis. A nil ClickHouseDB makes every call a no-op, so the
// tracker runs fine without the analytics sink.
type CycleStatsRepository struct {
	db *ClickHouseDB
}

// NewCycleStatsRepository creates a new cycle stats repository
func NewCycleStatsRepository(db *ClickHouseDB) *CycleStatsRepository {
	return &CycleStatsRepository{db: db}
}

// EnsureSchema creates the refresh_cycles table if it is missing.
func (r *CycleStatsRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	query := `
		CREATE TABLE IF NOT EXISTS refresh_cycles (
			cycle_id         String,
			started_at       DateTime64(3),
			finished_at      DateTime64(3),
			posts_scanned    UInt32,
			candidates_found UInt32,
			below_score_bar  UInt32,
			unknown_balance  UInt32,
			below_floor      UInt32,
			whales_upserted  UInt32,
			succeeded        UInt8,
			error            String
		)
		ENGINE = MergeTree()
		ORDER BY started_at
	`
	if err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure refresh_cycles schema: %w", err)
	}
	return nil
}

// Record writes one cycle's stats.
func (r *CycleStatsRepository) Record(ctx context.Context, stats *models.CycleStats) error {
	if r.db == nil {
		return nil
	}

	query := `
		INSERT INTO refresh_cycles (
			cycle_id, started_at, finished_at, posts_scanned, candidates_found,
			below_score_bar, unknown_balance, below_floor, whales_upserted,
			succeeded, error
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	succeeded := uint8(0)
	if stats.Succeeded {
		succeeded = 1
	}

	err := r.db.Exec(ctx, query,
		stats.CycleID,
		stats.StartedAt,
		stats.FinishedAt,
		uint32(stats.PostsScanned),
		uint32(stats.CandidatesFound),
		uint32(stats.BelowScoreBar),
		uint32(stats.UnknownBalance),
		uint32(stats.BelowFloor),
		uint32(stats.WhalesUpserted),
		succeeded,
		stats.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record cycle stats: %w", err)
	}
	return nil
}
