package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/oracle"
	"github.com/whale-tracker/internal/types"
)

const (
	ethAddr = "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7"
	solAddr = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

type fakeOracle struct {
	facts   map[string]oracle.BalanceFact
	lookups int
}

func (f *fakeOracle) Lookup(ctx context.Context, address string, network types.Network) oracle.BalanceFact {
	f.lookups++
	if fact, ok := f.facts[address]; ok {
		return fact
	}
	return oracle.BalanceFact{Address: address, Network: network, CheckedAt: time.Now()}
}

func testFloors() map[types.Network]float64 {
	return map[types.Network]float64{
		types.NetworkEthereum: 100_000,
		types.NetworkSolana:   50_000,
		types.NetworkBitcoin:  100_000,
	}
}

func knownFact(addr string, network types.Network, usd float64) oracle.BalanceFact {
	return oracle.BalanceFact{Address: addr, Network: network, USD: usd, Known: true, CheckedAt: time.Now()}
}

// Two weak mentions: avg 22.5 + 2*5 = 32.5, under the bar. The oracle
// must not even be consulted.
func TestAggregator_ScoreBarRejectsBeforeOracle(t *testing.T) {
	posts := []models.Post{
		// quality 20: ratio only
		{Stream: "solana", ID: "a", Title: "x", Body: solAddr, UpvoteRatio: 1.0, HasUpvoteRatio: true},
		// quality 25: ratio + post score
		{Stream: "solana", ID: "b", Title: "x", Body: solAddr, UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 50},
	}

	o := &fakeOracle{facts: map[string]oracle.BalanceFact{
		solAddr: knownFact(solAddr, types.NetworkSolana, 1_000_000),
	}}
	agg := NewAggregator(o, testFloors())

	candidates := agg.Collect(posts)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 32.5, candidates[0].CombinedScore, 0.001)

	upserts, stats := agg.Vet(context.Background(), candidates)
	assert.Empty(t, upserts)
	assert.Zero(t, o.lookups)
	assert.Equal(t, 1, stats.BelowScoreBar)
}

func TestAggregator_AcceptsFundedWhale(t *testing.T) {
	posts := []models.Post{
		// quality 60: ratio 20 + score 20 + comments 15 + "wallet" 5
		{Stream: "ethtrader", ID: "a", Title: "wallet watch", Body: ethAddr,
			UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 200, NumComments: 75},
	}

	o := &fakeOracle{facts: map[string]oracle.BalanceFact{
		ethAddr: knownFact(ethAddr, types.NetworkEthereum, 250_000),
	}}
	agg := NewAggregator(o, testFloors())

	upserts := agg.Aggregate(context.Background(), posts)
	require.Len(t, upserts, 1)

	assert.Equal(t, ethAddr, upserts[0].Address)
	assert.Equal(t, types.NetworkEthereum, upserts[0].Network)
	assert.Equal(t, "Ethereum Discoverer", upserts[0].Nickname)
	assert.Equal(t, 65, upserts[0].SuccessScore)
	assert.Equal(t, 1, upserts[0].MentionCount)
}

func TestAggregator_UnknownBalanceRejected(t *testing.T) {
	posts := []models.Post{
		{Stream: "ethtrader", ID: "a", Title: "wallet watch", Body: ethAddr,
			UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 200, NumComments: 75},
	}

	o := &fakeOracle{} // every lookup comes back unknown
	agg := NewAggregator(o, testFloors())

	upserts, stats := agg.Vet(context.Background(), agg.Collect(posts))
	assert.Empty(t, upserts)
	assert.Equal(t, 1, o.lookups)
	assert.Equal(t, 1, stats.UnknownBalance)
}

func TestAggregator_BelowFloorRejected(t *testing.T) {
	posts := []models.Post{
		{Stream: "ethtrader", ID: "a", Title: "wallet watch", Body: ethAddr,
			UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 200, NumComments: 75},
	}

	o := &fakeOracle{facts: map[string]oracle.BalanceFact{
		ethAddr: knownFact(ethAddr, types.NetworkEthereum, 99_999),
	}}
	agg := NewAggregator(o, testFloors())

	assert.Empty(t, agg.Aggregate(context.Background(), posts))
}

func TestAggregator_MentionBonusAccumulates(t *testing.T) {
	// Three quality-40 mentions: 40 + 3*5 = 55.
	post := func(id string) models.Post {
		return models.Post{Stream: "solana", ID: id, Title: "t", Body: solAddr,
			UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 200}
	}
	posts := []models.Post{post("a"), post("b"), post("c")}

	o := &fakeOracle{facts: map[string]oracle.BalanceFact{
		solAddr: knownFact(solAddr, types.NetworkSolana, 80_000),
	}}
	agg := NewAggregator(o, testFloors())

	upserts := agg.Aggregate(context.Background(), posts)
	require.Len(t, upserts, 1)
	assert.Equal(t, 55, upserts[0].SuccessScore)
	assert.Equal(t, 3, upserts[0].MentionCount)
	assert.Equal(t, "Solana Discoverer", upserts[0].Nickname)
}

func TestAggregator_CombinedScoreCapped(t *testing.T) {
	// Twenty-five quality-40 mentions would push past 100.
	var posts []models.Post
	for i := 0; i < 25; i++ {
		posts = append(posts, models.Post{Stream: "solana", ID: string(rune('a' + i)),
			Title: "t", Body: solAddr, UpvoteRatio: 1.0, HasUpvoteRatio: true, Score: 200})
	}

	agg := NewAggregator(&fakeOracle{}, testFloors())
	candidates := agg.Collect(posts)

	require.Len(t, candidates, 1)
	assert.Equal(t, 100.0, candidates[0].CombinedScore)
	assert.Equal(t, 25, candidates[0].MentionCount)
}

func TestAggregator_NicknameFromMostCommonStream(t *testing.T) {
	post := func(stream string) models.Post {
		return models.Post{Stream: stream, Title: "t", Body: solAddr}
	}

	agg := NewAggregator(&fakeOracle{}, testFloors())

	candidates := agg.Collect([]models.Post{post("defi"), post("solana"), post("solana")})
	require.Len(t, candidates, 1)
	assert.Equal(t, "Solana Discoverer", candidates[0].Nickname)

	candidates = agg.Collect([]models.Post{post("obscuresub")})
	require.Len(t, candidates, 1)
	assert.Equal(t, "Reddit Discoverer", candidates[0].Nickname)
}

func TestAggregator_NoCandidates(t *testing.T) {
	agg := NewAggregator(&fakeOracle{}, testFloors())

	upserts := agg.Aggregate(context.Background(), []models.Post{
		{Stream: "defi", Title: "nothing here", Body: "just vibes"},
	})
	assert.Empty(t, upserts)
}
