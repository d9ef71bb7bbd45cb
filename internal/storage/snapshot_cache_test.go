package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/types"
)

func testSnapshotCache(t *testing.T) *SnapshotCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotCache(NewRedisCacheFromClient(client), time.Hour)
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	cache := testSnapshotCache(t)
	ctx := testContext(t)

	refreshedAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	snapshot := &models.Snapshot{
		Records: []models.WhaleRecord{
			{
				Address:         "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7",
				Network:         types.NetworkEthereum,
				Nickname:        "Ethereum Discoverer",
				SuccessScore:    65,
				ConfidenceLevel: types.ConfidenceMedium,
				TotalTrades:     3,
				IsActive:        true,
			},
		},
		RefreshedAt: refreshedAt,
		Sources:     []string{"CryptoCurrency", "ethtrader"},
	}

	if err := cache.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() returned nil snapshot")
	}
	if len(loaded.Records) != 1 {
		t.Fatalf("Load() records = %d, want 1", len(loaded.Records))
	}
	if loaded.Records[0].Address != snapshot.Records[0].Address {
		t.Errorf("Load() address = %s, want %s", loaded.Records[0].Address, snapshot.Records[0].Address)
	}
	if loaded.Records[0].SuccessScore != 65 {
		t.Errorf("Load() score = %d, want 65", loaded.Records[0].SuccessScore)
	}
	if !loaded.RefreshedAt.Equal(refreshedAt) {
		t.Errorf("Load() refreshedAt = %v, want %v", loaded.RefreshedAt, refreshedAt)
	}
}

func TestSnapshotCache_Empty(t *testing.T) {
	cache := testSnapshotCache(t)
	ctx := testContext(t)

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Errorf("Load() = %+v, want nil for empty cache", loaded)
	}
}

func TestSnapshotCache_Clear(t *testing.T) {
	cache := testSnapshotCache(t)
	ctx := testContext(t)

	if err := cache.Save(ctx, &models.Snapshot{RefreshedAt: time.Now()}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	loaded, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != nil {
		t.Error("Load() returned snapshot after Clear()")
	}
}
