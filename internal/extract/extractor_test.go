package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whale-tracker/internal/types"
)

func TestExtract_EthereumHappyPath(t *testing.T) {
	text := "Great DD on wallet 0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7 — profitable trader"

	candidates := Extract(text)

	require.Len(t, candidates, 1)
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7", candidates[0].Address)
	assert.Equal(t, types.NetworkEthereum, candidates[0].Network)
	// No '.' in the text, so the whole text is the containing sentence.
	assert.Equal(t, text, candidates[0].Context)
}

func TestExtract_SolanaAddress(t *testing.T) {
	candidates := Extract("Check JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN on Jupiter")

	require.Len(t, candidates, 1)
	assert.Equal(t, "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", candidates[0].Address)
	assert.Equal(t, types.NetworkSolana, candidates[0].Network)
}

func TestExtract_BitcoinAddresses(t *testing.T) {
	tests := []struct {
		name string
		text string
		addr string
	}{
		{
			name: "legacy P2PKH",
			text: "everyone burns coins at 1111111111111111111114oLvT2 eventually",
			addr: "1111111111111111111114oLvT2",
		},
		{
			name: "bech32",
			text: "sent to bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq yesterday",
			addr: "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := Extract(tt.text)
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.addr, candidates[0].Address)
			assert.Equal(t, types.NetworkBitcoin, candidates[0].Network)
		})
	}
}

// A reject token in the surrounding text does not reject a separate,
// well-formed address; only tokens inside the matched address text do.
func TestExtract_RejectTokenInSurroundingText(t *testing.T) {
	candidates := Extract("your_address 0x0000000000000000000000000000000000000000")

	require.Len(t, candidates, 1)
	assert.Equal(t, "0x0000000000000000000000000000000000000000", candidates[0].Address)
	assert.Equal(t, types.NetworkEthereum, candidates[0].Network)
}

func TestExtract_FalsePositiveFilter(t *testing.T) {
	// Address-shaped strings carrying placeholder tokens must be dropped.
	rejects := []string{
		"testtesttesttesttesttesttesttest",                // base58 shape, contains "test"
		"demodemodemodemodemodemodemodemo",                // base58 shape, contains "demo"
		"TESTTESTTESTTESTTESTTESTTESTTEST"[:12] + "aaaaaaaaaaaaaaaaaaaa", // case-insensitive
		"bc1" + strings.Repeat("example", 6),              // bech32 shape, contains "example"
	}

	for _, addr := range rejects {
		assert.Empty(t, Extract("found "+addr+" in a post"), "reject token should have filtered %q", addr)
	}
}

func TestExtract_DeduplicatesWithinPost(t *testing.T) {
	addr := "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	candidates := Extract(addr + " is great. I repeat, " + addr + " is great")

	require.Len(t, candidates, 1)
}

// An ethereum match never yields a second candidate on another network,
// and a string matching both the solana and bitcoin shapes classifies by
// the ethereum/solana/bitcoin rule order.
func TestExtract_NetworkTieBreak(t *testing.T) {
	t.Run("ethereum wins over base58 scan", func(t *testing.T) {
		// The 40-char tail is also base58-alphabet-only; it must not be
		// reported a second time as a solana candidate.
		candidates := Extract("watch 0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")
		require.Len(t, candidates, 1)
		assert.Equal(t, types.NetworkEthereum, candidates[0].Network)
	})

	t.Run("solana wins over bitcoin legacy", func(t *testing.T) {
		// 34 chars starting with '1' satisfies both the solana (32-44)
		// and bitcoin legacy (25-34) shapes.
		addr := "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
		require.Len(t, addr, 34)
		candidates := Extract("whale at " + addr + " spotted")
		require.Len(t, candidates, 1)
		assert.Equal(t, types.NetworkSolana, candidates[0].Network)
	})
}

func TestExtract_ContextSentence(t *testing.T) {
	addr := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7"
	text := "First sentence about nothing. This wallet " + addr + " made millions. Third sentence"

	candidates := Extract(text)

	require.Len(t, candidates, 1)
	assert.Equal(t, "This wallet "+addr+" made millions", candidates[0].Context)
}

func TestExtract_ContextTruncatedAt500(t *testing.T) {
	addr := "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb7"
	text := addr + " " + strings.Repeat("x", 600)

	candidates := Extract(text)

	require.Len(t, candidates, 1)
	assert.Len(t, candidates[0].Context, 500)
}

func TestExtract_EmptyAndPlainText(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("just a normal post about markets with no addresses at all"))
}
