package models

import "time"

// Snapshot is the immutable view of the whale population the read API
// serves. A refresh cycle builds a new Snapshot and swaps it in whole;
// readers never see a half-built one.
type Snapshot struct {
	Records     []WhaleRecord `json:"records"`
	RefreshedAt time.Time     `json:"refreshed_at"`
	Sources     []string      `json:"sources"`
}
