// Package aggregate folds per-post address mentions into whale candidates
// and applies the balance gate.
package aggregate

import (
	"context"
	"math"

	"github.com/whale-tracker/internal/extract"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/oracle"
	"github.com/whale-tracker/internal/quality"
	"github.com/whale-tracker/internal/types"
)

const (
	// minCombinedScore rejects candidates below the confidence bar.
	minCombinedScore = 40

	// mentionBonus is added per distinct mentioning post.
	mentionBonus = 5

	nicknameSuffix = " Discoverer"
)

// streamNicknames maps a stream to the nickname prefix given to whales
// discovered there.
var streamNicknames = map[string]string{
	"solana":         "Solana",
	"defi":           "DeFi",
	"ethtrader":      "Ethereum",
	"CryptoCurrency": "Crypto",
	"SolanaNFTs":     "NFT",
}

// BalanceChecker is the slice of the balance oracle the aggregator needs.
type BalanceChecker interface {
	Lookup(ctx context.Context, address string, network types.Network) oracle.BalanceFact
}

// Candidate is an address aggregated across posts, before and after the
// balance gate.
type Candidate struct {
	Address       string
	Network       types.Network
	Nickname      string
	CombinedScore float64
	MentionCount  int
	BalanceUSD    float64
	Mentions      []models.Mention
}

// Aggregator turns polled posts into vetted whale upserts.
type Aggregator struct {
	oracle BalanceChecker
	floors map[types.Network]float64
}

// NewAggregator builds an Aggregator gated by oracle with per-network
// USD floors.
func NewAggregator(oracle BalanceChecker, floors map[types.Network]float64) *Aggregator {
	return &Aggregator{oracle: oracle, floors: floors}
}

// Collect extracts and scores address mentions from posts, grouped by
// address. The first mention of an address fixes its network; an address
// seen on two networks keeps the first and is never duplicated.
func (a *Aggregator) Collect(posts []models.Post) []*Candidate {
	byAddress := make(map[string]*Candidate)
	var order []string

	for i := range posts {
		post := &posts[i]
		score := quality.Score(post)
		for _, cand := range extract.Extract(post.Title + " " + post.Body) {
			cand.Post = post
			c, ok := byAddress[cand.Address]
			if !ok {
				c = &Candidate{
					Address: cand.Address,
					Network: cand.Network,
				}
				byAddress[cand.Address] = c
				order = append(order, cand.Address)
			}
			c.Mentions = append(c.Mentions, models.Mention{Candidate: cand, Quality: score})
			c.MentionCount++
		}
	}

	candidates := make([]*Candidate, 0, len(order))
	for _, addr := range order {
		c := byAddress[addr]
		c.CombinedScore = combinedScore(c.Mentions)
		c.Nickname = nicknameFor(c.Mentions)
		candidates = append(candidates, c)
	}
	return candidates
}

// VetStats counts why candidates were dropped during vetting.
type VetStats struct {
	BelowScoreBar  int
	UnknownBalance int
	BelowFloor     int
}

// Vet applies the score bar and the balance gate, returning the upserts
// the store should receive. Candidates whose balance is unknown are
// rejected; an unknown balance is not a zero balance, but it is not
// proof of wealth either.
func (a *Aggregator) Vet(ctx context.Context, candidates []*Candidate) ([]models.WhaleUpsert, VetStats) {
	logger := logging.FromContext(ctx)

	var stats VetStats
	var upserts []models.WhaleUpsert
	for _, c := range candidates {
		if c.CombinedScore < minCombinedScore {
			stats.BelowScoreBar++
			continue
		}

		fact := a.oracle.Lookup(ctx, c.Address, c.Network)
		if !fact.Known {
			stats.UnknownBalance++
			logger.WithFields(map[string]interface{}{
				"address": c.Address,
				"network": string(c.Network),
			}).Debug("candidate rejected, balance unknown")
			continue
		}
		if fact.USD < a.floors[c.Network] {
			stats.BelowFloor++
			logger.WithFields(map[string]interface{}{
				"address":     c.Address,
				"network":     string(c.Network),
				"balance_usd": fact.USD,
			}).Debug("candidate rejected, balance below whale floor")
			continue
		}

		c.BalanceUSD = fact.USD
		upserts = append(upserts, models.WhaleUpsert{
			Address:      c.Address,
			Network:      c.Network,
			Nickname:     c.Nickname,
			SuccessScore: int(math.Round(c.CombinedScore)),
			MentionCount: c.MentionCount,
		})
	}
	return upserts, stats
}

// Aggregate runs Collect then Vet.
func (a *Aggregator) Aggregate(ctx context.Context, posts []models.Post) []models.WhaleUpsert {
	upserts, _ := a.Vet(ctx, a.Collect(posts))
	return upserts
}

// combinedScore averages the mention qualities and adds a bonus per
// mention, capped at 100.
func combinedScore(mentions []models.Mention) float64 {
	if len(mentions) == 0 {
		return 0
	}
	sum := 0
	for _, m := range mentions {
		sum += m.Quality
	}
	combined := float64(sum)/float64(len(mentions)) + float64(mentionBonus*len(mentions))
	return math.Min(100, combined)
}

// nicknameFor names a candidate after the stream most of its mentions
// came from; earlier streams win ties.
func nicknameFor(mentions []models.Mention) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, m := range mentions {
		stream := m.Candidate.Post.Stream
		counts[stream]++
		if counts[stream] > bestCount {
			best, bestCount = stream, counts[stream]
		}
	}

	prefix, ok := streamNicknames[best]
	if !ok {
		prefix = "Reddit"
	}
	return prefix + nicknameSuffix
}
