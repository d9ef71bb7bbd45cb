package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/types"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	dataSourceLive   = "Live_Reddit_Etherscan"
	dataSourceStored = "Stored"

	lastUpdateNever = "never"
)

// TopWhalesResponse is the payload for GET /whales/top.
type TopWhalesResponse struct {
	Whales     []models.WhaleRecord `json:"whales"`
	TotalCount int                  `json:"total_count"`
	DataSource string               `json:"data_source"`
	LastUpdate string               `json:"last_update"`
	LiveData   bool                 `json:"live_data"`
}

func (s *Server) handleTopWhales(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	network, ok := parseNetworkFilter(r.URL.Query().Get("network"))
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
			"network must be one of: all, ethereum, solana, bitcoin",
			map[string]interface{}{"network": r.URL.Query().Get("network")})
		return
	}

	live, _ := strconv.ParseBool(r.URL.Query().Get("live"))

	if live && s.coordinator != nil {
		s.serveLive(w, r, limit, network)
		return
	}
	s.serveStored(w, r, limit, network)
}

// serveLive answers from the coordinator's snapshot. A stale snapshot is
// still served immediately; the Snapshot call kicks off the refresh in
// the background.
func (s *Server) serveLive(w http.ResponseWriter, r *http.Request, limit int, network types.Network) {
	snapshot := s.coordinator.Snapshot(r.Context())
	if snapshot == nil {
		respondJSON(w, http.StatusOK, TopWhalesResponse{
			Whales:     []models.WhaleRecord{},
			TotalCount: 0,
			DataSource: dataSourceLive,
			LastUpdate: lastUpdateNever,
			LiveData:   true,
		})
		return
	}

	whales := filterByNetwork(snapshot.Records, network)
	if len(whales) > limit {
		whales = whales[:limit]
	}

	respondJSON(w, http.StatusOK, TopWhalesResponse{
		Whales:     whales,
		TotalCount: len(whales),
		DataSource: dataSourceLive,
		LastUpdate: snapshot.RefreshedAt.Format(time.RFC3339),
		LiveData:   true,
	})
}

// serveStored answers straight from the whale store.
func (s *Server) serveStored(w http.ResponseWriter, r *http.Request, limit int, network types.Network) {
	whales, err := s.whales.Top(r.Context(), limit, network)
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}
	if whales == nil {
		whales = []models.WhaleRecord{}
	}

	lastUpdate := lastUpdateNever
	if s.coordinator != nil {
		if snapshot := s.coordinator.Snapshot(r.Context()); snapshot != nil {
			lastUpdate = snapshot.RefreshedAt.Format(time.RFC3339)
		}
	}

	respondJSON(w, http.StatusOK, TopWhalesResponse{
		Whales:     whales,
		TotalCount: len(whales),
		DataSource: dataSourceStored,
		LastUpdate: lastUpdate,
		LiveData:   false,
	})
}

func (s *Server) handleWhaleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.whales.GetStats(r.Context())
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// parseLimit clamps the requested page size to [1, 100]; absent or
// malformed values fall back to the default.
func parseLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// parseNetworkFilter maps the query value to a network filter. Empty and
// "all" mean no filter.
func parseNetworkFilter(raw string) (types.Network, bool) {
	if raw == "" || raw == "all" {
		return "", true
	}
	return types.ParseNetwork(raw)
}

func filterByNetwork(records []models.WhaleRecord, network types.Network) []models.WhaleRecord {
	if network == "" {
		return records
	}
	filtered := make([]models.WhaleRecord, 0, len(records))
	for _, rec := range records {
		if rec.Network == network {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
