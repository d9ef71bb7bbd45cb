package types

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestParseNetwork(t *testing.T) {
	for _, name := range []string{"ethereum", "solana", "bitcoin"} {
		network, ok := ParseNetwork(name)
		assert.True(t, ok)
		assert.Equal(t, Network(name), network)
	}

	for _, name := range []string{"", "all", "dogecoin", "Ethereum"} {
		_, ok := ParseNetwork(name)
		assert.False(t, ok, "expected %q to be rejected", name)
	}
}

func TestConfidenceForScore_Boundaries(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceForScore(100))
	assert.Equal(t, ConfidenceHigh, ConfidenceForScore(80))
	assert.Equal(t, ConfidenceMedium, ConfidenceForScore(79))
	assert.Equal(t, ConfidenceMedium, ConfidenceForScore(60))
	assert.Equal(t, ConfidenceLow, ConfidenceForScore(59))
	assert.Equal(t, ConfidenceLow, ConfidenceForScore(0))
}

func TestConfidenceForScore_NeverDropsAsScoreRises(t *testing.T) {
	rank := map[ConfidenceLevel]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}

	properties := gopter.NewProperties(nil)
	properties.Property("confidence is monotonic in score", prop.ForAll(
		func(a, b int) bool {
			if a > b {
				a, b = b, a
			}
			return rank[ConfidenceForScore(a)] <= rank[ConfidenceForScore(b)]
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))
	properties.TestingRun(t)
}

func TestServiceError(t *testing.T) {
	err := &ServiceError{Code: ErrCodeInvalidNetwork, Message: "unknown network"}
	assert.Equal(t, "unknown network", err.Error())
}
