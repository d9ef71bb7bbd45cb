// Package refresh runs the discovery pipeline and owns the snapshot the
// read API serves.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/whale-tracker/internal/aggregate"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/types"
)

// snapshotRecordLimit bounds how many whales a snapshot carries. The API
// clamps reads to 100, so the snapshot never needs more.
const snapshotRecordLimit = 100

// Poller supplies the posts for one cycle.
type Poller interface {
	Poll(ctx context.Context) ([]models.Post, error)
	Streams() []string
}

// Aggregator folds posts into vetted upserts.
type Aggregator interface {
	Collect(posts []models.Post) []*aggregate.Candidate
	Vet(ctx context.Context, candidates []*aggregate.Candidate) ([]models.WhaleUpsert, aggregate.VetStats)
}

// WhaleStore is the slice of the repository the coordinator needs.
type WhaleStore interface {
	UpsertBatch(ctx context.Context, upserts []models.WhaleUpsert) error
	Top(ctx context.Context, limit int, network types.Network) ([]models.WhaleRecord, error)
}

// SnapshotCache persists the last-good snapshot across restarts.
// Optional; nil disables warm starts.
type SnapshotCache interface {
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// StatsSink records per-cycle stats. Optional; nil disables the sink.
type StatsSink interface {
	Record(ctx context.Context, stats *models.CycleStats) error
}

// flight is one in-progress refresh. Concurrent callers wait on done and
// share err instead of starting their own cycle.
type flight struct {
	done chan struct{}
	err  error
}

// Coordinator swaps complete snapshots atomically: readers either see
// the previous snapshot or the new one, never a partial refresh. A
// failed cycle retains the previous snapshot.
type Coordinator struct {
	poller     Poller
	aggregator Aggregator
	store      WhaleStore
	cache      SnapshotCache
	sink       StatsSink

	staleAfter time.Duration
	budget     time.Duration

	mu       sync.RWMutex
	snapshot *models.Snapshot

	flightMu sync.Mutex
	inflight *flight
}

// NewCoordinator wires a coordinator. cache and sink may be nil.
func NewCoordinator(poller Poller, aggregator Aggregator, store WhaleStore, cache SnapshotCache, sink StatsSink, staleAfter, budget time.Duration) *Coordinator {
	return &Coordinator{
		poller:     poller,
		aggregator: aggregator,
		store:      store,
		cache:      cache,
		sink:       sink,
		staleAfter: staleAfter,
		budget:     budget,
	}
}

// WarmStart loads the cached last-good snapshot so a restarted process
// can serve before its first refresh. Missing or unreadable cache data
// is not an error.
func (c *Coordinator) WarmStart(ctx context.Context) {
	if c.cache == nil {
		return
	}
	snapshot, err := c.cache.Load(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("snapshot warm start failed, starting cold")
		return
	}
	if snapshot == nil {
		return
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"records":      len(snapshot.Records),
		"refreshed_at": snapshot.RefreshedAt,
	}).Info("snapshot restored from cache")
}

// Snapshot returns the current snapshot, which may be nil before the
// first successful refresh. A stale snapshot additionally kicks off a
// background refresh; the caller still gets the retained snapshot
// immediately.
func (c *Coordinator) Snapshot(ctx context.Context) *models.Snapshot {
	c.mu.RLock()
	snapshot := c.snapshot
	c.mu.RUnlock()

	if c.IsStale() {
		go func() {
			if err := c.Refresh(context.Background()); err != nil {
				logging.GetGlobalLogger().WithError(err).Error("background refresh failed")
			}
		}()
	}
	return snapshot
}

// IsStale reports whether the current snapshot is missing or older than
// the staleness bound.
func (c *Coordinator) IsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot == nil || time.Since(c.snapshot.RefreshedAt) > c.staleAfter
}

// Refresh runs one discovery cycle, or joins the one already running.
// On failure the previous snapshot is retained and the cycle error is
// returned.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.flightMu.Lock()
	if f := c.inflight; f != nil {
		c.flightMu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &flight{done: make(chan struct{})}
	c.inflight = f
	c.flightMu.Unlock()

	f.err = c.runCycle(ctx)
	close(f.done)

	c.flightMu.Lock()
	c.inflight = nil
	c.flightMu.Unlock()

	return f.err
}

// runCycle executes poll, aggregate, persist and snapshot-swap under the
// cycle budget.
func (c *Coordinator) runCycle(ctx context.Context) error {
	cycleID := uuid.New().String()
	logger := logging.FromContext(ctx).WithField("cycle_id", cycleID)

	cycleCtx, cancel := context.WithTimeout(logging.WithLogger(ctx, logger), c.budget)
	defer cancel()

	stats := &models.CycleStats{
		CycleID:   cycleID,
		StartedAt: time.Now().UTC(),
	}
	logger.Info("refresh cycle started")

	err := c.pipeline(cycleCtx, stats)

	stats.FinishedAt = time.Now().UTC()
	stats.Succeeded = err == nil
	if err != nil {
		stats.Error = err.Error()
		logger.WithError(err).Error("refresh cycle failed, previous snapshot retained")
	} else {
		logger.WithFields(map[string]interface{}{
			"posts_scanned":   stats.PostsScanned,
			"whales_upserted": stats.WhalesUpserted,
			"duration":        stats.FinishedAt.Sub(stats.StartedAt).String(),
		}).Info("refresh cycle complete")
	}

	c.recordStats(stats)
	return err
}

func (c *Coordinator) pipeline(ctx context.Context, stats *models.CycleStats) error {
	posts, err := c.poller.Poll(ctx)
	if err != nil {
		return err
	}
	stats.PostsScanned = len(posts)

	candidates := c.aggregator.Collect(posts)
	stats.CandidatesFound = len(candidates)

	upserts, vetStats := c.aggregator.Vet(ctx, candidates)
	stats.BelowScoreBar = vetStats.BelowScoreBar
	stats.UnknownBalance = vetStats.UnknownBalance
	stats.BelowFloor = vetStats.BelowFloor
	stats.WhalesUpserted = len(upserts)

	if err := c.store.UpsertBatch(ctx, upserts); err != nil {
		return err
	}

	records, err := c.store.Top(ctx, snapshotRecordLimit, "")
	if err != nil {
		return err
	}

	snapshot := &models.Snapshot{
		Records:     records,
		RefreshedAt: time.Now().UTC(),
		Sources:     c.poller.Streams(),
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Save(ctx, snapshot); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("failed to cache snapshot")
		}
	}
	return nil
}

func (c *Coordinator) recordStats(stats *models.CycleStats) {
	if c.sink == nil {
		return
	}
	// Stats must land even when the cycle context is spent.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.sink.Record(ctx, stats); err != nil {
		logging.GetGlobalLogger().WithError(err).Warn("failed to record cycle stats")
	}
}
