package models

import "time"

// CycleStats summarizes one refresh cycle for the stats sink and logs.
type CycleStats struct {
	CycleID         string    `json:"cycle_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	PostsScanned    int       `json:"posts_scanned"`
	CandidatesFound int       `json:"candidates_found"`
	BelowScoreBar   int       `json:"below_score_bar"`
	UnknownBalance  int       `json:"unknown_balance"`
	BelowFloor      int       `json:"below_floor"`
	WhalesUpserted  int       `json:"whales_upserted"`
	Succeeded       bool      `json:"succeeded"`
	Error           string    `json:"error,omitempty"`
}
