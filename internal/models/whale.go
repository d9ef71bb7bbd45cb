package models

import (
	"time"

	"github.com/whale-tracker/internal/types"
)

// WhaleRecord represents a persisted whale discovered by the pipeline.
// The address is the primary key and is unique across all networks.
type WhaleRecord struct {
	Address         string                `json:"address"`
	Network         types.Network         `json:"network"`
	Nickname        string                `json:"nickname"`
	SuccessScore    int                   `json:"success_score"`
	ConfidenceLevel types.ConfidenceLevel `json:"confidence_level"`
	TotalTrades     int                   `json:"total_trades"` // cumulative mention count
	IsActive        bool                  `json:"is_active"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// WhaleUpsert carries one aggregated discovery into the store. The store
// keeps the maximum of the incoming and existing score and accumulates
// the mention count.
type WhaleUpsert struct {
	Address      string
	Network      types.Network
	Nickname     string
	SuccessScore int
	MentionCount int
}
