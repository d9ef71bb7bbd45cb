package models

import (
	"time"

	"github.com/whale-tracker/internal/types"
)

// Post is an immutable snapshot of a forum post as seen by the poller.
// The same post may be observed again on later refreshes; posts are never
// persisted.
type Post struct {
	Stream         string    `json:"stream"` // subreddit name
	ID             string    `json:"id"`     // unique within a stream
	Author         string    `json:"author"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Score          int       `json:"score"`
	UpvoteRatio    float64   `json:"upvote_ratio"`
	HasUpvoteRatio bool      `json:"has_upvote_ratio"`
	NumComments    int       `json:"num_comments"`
	CreatedAt      time.Time `json:"created_at"`
	Permalink      string    `json:"permalink"`
}

// AddressCandidate is a wallet-address-shaped string extracted from a post.
// Candidates live only for the duration of one refresh cycle.
type AddressCandidate struct {
	Address string        `json:"address"`
	Network types.Network `json:"network"`
	Context string        `json:"context"` // surrounding sentence, at most 500 chars
	Post    *Post         `json:"-"`
}

// Mention is a candidate tagged with the quality score of its source post.
type Mention struct {
	Candidate AddressCandidate
	Quality   int // 0-100
}
