package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/storage"
	"github.com/whale-tracker/internal/types"
)

type stubReader struct {
	top      []models.WhaleRecord
	topErr   error
	stats    *storage.Stats
	lastTop  struct {
		limit   int
		network types.Network
	}
}

func (r *stubReader) Top(ctx context.Context, limit int, network types.Network) ([]models.WhaleRecord, error) {
	r.lastTop.limit = limit
	r.lastTop.network = network
	if r.topErr != nil {
		return nil, r.topErr
	}
	return r.top, nil
}

func (r *stubReader) GetStats(ctx context.Context) (*storage.Stats, error) {
	if r.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	return r.stats, nil
}

type stubCoordinator struct {
	snapshot *models.Snapshot
	stale    bool
	calls    int
}

func (c *stubCoordinator) Snapshot(ctx context.Context) *models.Snapshot {
	c.calls++
	return c.snapshot
}

func (c *stubCoordinator) IsStale() bool { return c.stale }

func testServer(reader WhaleReader, coordinator SnapshotSource) *Server {
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: "0", RPS: 1000}
	return NewServer(cfg, reader, coordinator)
}

func whale(addr string, network types.Network, score int) models.WhaleRecord {
	return models.WhaleRecord{
		Address:         addr,
		Network:         network,
		Nickname:        "Crypto Discoverer",
		SuccessScore:    score,
		ConfidenceLevel: types.ConfidenceForScore(score),
		IsActive:        true,
	}
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeTop(t *testing.T, rec *httptest.ResponseRecorder) TopWhalesResponse {
	t.Helper()
	var resp TopWhalesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestTopWhales_StoredDefault(t *testing.T) {
	reader := &stubReader{top: []models.WhaleRecord{
		whale("0xaaa", types.NetworkEthereum, 90),
		whale("0xbbb", types.NetworkEthereum, 70),
	}}
	s := testServer(reader, nil)

	rec := doGet(t, s, "/whales/top")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTop(t, rec)
	assert.Len(t, resp.Whales, 2)
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "Stored", resp.DataSource)
	assert.Equal(t, "never", resp.LastUpdate)
	assert.False(t, resp.LiveData)
	assert.Equal(t, 10, reader.lastTop.limit)
	assert.Equal(t, types.Network(""), reader.lastTop.network)
}

func TestTopWhales_LimitClamped(t *testing.T) {
	reader := &stubReader{}
	s := testServer(reader, nil)

	doGet(t, s, "/whales/top?limit=5000")
	assert.Equal(t, 100, reader.lastTop.limit)

	doGet(t, s, "/whales/top?limit=0")
	assert.Equal(t, 1, reader.lastTop.limit)

	doGet(t, s, "/whales/top?limit=-3")
	assert.Equal(t, 1, reader.lastTop.limit)

	doGet(t, s, "/whales/top?limit=banana")
	assert.Equal(t, 10, reader.lastTop.limit)
}

func TestTopWhales_NetworkFilter(t *testing.T) {
	reader := &stubReader{}
	s := testServer(reader, nil)

	rec := doGet(t, s, "/whales/top?network=solana")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.NetworkSolana, reader.lastTop.network)

	rec = doGet(t, s, "/whales/top?network=all")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.Network(""), reader.lastTop.network)
}

func TestTopWhales_InvalidNetwork(t *testing.T) {
	s := testServer(&stubReader{}, nil)

	rec := doGet(t, s, "/whales/top?network=dogecoin")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
}

func TestTopWhales_LiveServesSnapshot(t *testing.T) {
	refreshedAt := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	coordinator := &stubCoordinator{snapshot: &models.Snapshot{
		Records: []models.WhaleRecord{
			whale("0xaaa", types.NetworkEthereum, 90),
			whale("So1Addr", types.NetworkSolana, 80),
			whale("0xbbb", types.NetworkEthereum, 60),
		},
		RefreshedAt: refreshedAt,
	}}
	s := testServer(&stubReader{}, coordinator)

	rec := doGet(t, s, "/whales/top?live=true&network=ethereum&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTop(t, rec)
	require.Len(t, resp.Whales, 1)
	assert.Equal(t, "0xaaa", resp.Whales[0].Address)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, "Live_Reddit_Etherscan", resp.DataSource)
	assert.Equal(t, refreshedAt.Format(time.RFC3339), resp.LastUpdate)
	assert.True(t, resp.LiveData)
	assert.Equal(t, 1, coordinator.calls)
}

// Before the first refresh there is nothing to serve live, but the
// request still succeeds with an empty page.
func TestTopWhales_LiveBeforeFirstRefresh(t *testing.T) {
	s := testServer(&stubReader{}, &stubCoordinator{stale: true})

	rec := doGet(t, s, "/whales/top?live=true")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTop(t, rec)
	assert.Empty(t, resp.Whales)
	assert.Equal(t, 0, resp.TotalCount)
	assert.Equal(t, "never", resp.LastUpdate)
	assert.True(t, resp.LiveData)
}

// live=true without a coordinator falls back to stored data.
func TestTopWhales_LiveWithoutCoordinator(t *testing.T) {
	reader := &stubReader{top: []models.WhaleRecord{whale("0xaaa", types.NetworkEthereum, 90)}}
	s := testServer(reader, nil)

	rec := doGet(t, s, "/whales/top?live=true")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTop(t, rec)
	assert.Equal(t, "Stored", resp.DataSource)
	assert.False(t, resp.LiveData)
}

func TestTopWhales_StoredReportsLastRefresh(t *testing.T) {
	refreshedAt := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	coordinator := &stubCoordinator{snapshot: &models.Snapshot{RefreshedAt: refreshedAt}}
	s := testServer(&stubReader{}, coordinator)

	rec := doGet(t, s, "/whales/top?live=false")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTop(t, rec)
	assert.Equal(t, "Stored", resp.DataSource)
	assert.Equal(t, refreshedAt.Format(time.RFC3339), resp.LastUpdate)
}

func TestTopWhales_StoreError(t *testing.T) {
	reader := &stubReader{topErr: errors.New("connection refused")}
	s := testServer(reader, nil)

	rec := doGet(t, s, "/whales/top")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
}

func TestWhaleStats(t *testing.T) {
	reader := &stubReader{stats: &storage.Stats{
		TotalActive:  3,
		ByNetwork:    map[string]int{"ethereum": 2, "solana": 1},
		AverageScore: 71.5,
	}}
	s := testServer(reader, nil)

	rec := doGet(t, s, "/whales/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats storage.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalActive)
	assert.Equal(t, 2, stats.ByNetwork["ethereum"])
}

func TestHealth(t *testing.T) {
	s := testServer(&stubReader{}, nil)

	rec := doGet(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRateLimiter_Rejects(t *testing.T) {
	rl := NewRateLimiter(1)

	allowed := 0
	for i := 0; i < rateLimitBurst+5; i++ {
		if rl.Allow("10.0.0.1") {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, rateLimitBurst+1)

	// A different client has its own budget.
	assert.True(t, rl.Allow("10.0.0.2"))
}
