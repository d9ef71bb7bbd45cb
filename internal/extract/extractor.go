// Package extract turns free-form post text into wallet address candidates.
// Extraction is pure: no I/O, no randomness, no clock access.
package extract

import (
	"regexp"
	"strings"

	"github.com/whale-tracker/internal/models"
	"github.com/whale-tracker/internal/types"
)

const (
	// maxContextLen caps the surrounding-sentence context attached to a candidate.
	maxContextLen = 500

	// fallbackContext is used when no sentence contains the address.
	fallbackContext = "Wallet address mentioned in post"

	ethereumAddressLen = 42
)

// Address patterns. The \b anchors keep a pattern from matching inside a
// longer run of address-alphabet characters.
var (
	ethereumRe      = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	solanaRe        = regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)
	bitcoinLegacyRe = regexp.MustCompile(`\b[13][1-9A-HJ-NP-Za-km-z]{24,33}\b`)
	bitcoinBech32Re = regexp.MustCompile(`\bbc1[a-z0-9]{39,59}\b`)
)

// rejectTokens are substrings (checked case-insensitively against the
// matched address text) that mark an obvious placeholder rather than a
// real wallet.
var rejectTokens = []string{
	"example",
	"test",
	"demo",
	"placeholder",
	"your_address",
	"wallet_address",
	"contract_address",
	"token_address",
}

// Extract returns the address candidates implied by text. A given raw
// string yields at most one candidate; when a string matches multiple
// network shapes it is classified by the first rule it satisfies in the
// order ethereum, solana, bitcoin.
func Extract(text string) []models.AddressCandidate {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	var candidates []models.AddressCandidate

	appendMatches := func(network types.Network, matches []string) {
		for _, raw := range matches {
			if seen[raw] {
				continue
			}
			seen[raw] = true
			if rejected(raw, network) {
				continue
			}
			candidates = append(candidates, models.AddressCandidate{
				Address: raw,
				Network: network,
				Context: contextFor(text, raw),
			})
		}
	}

	appendMatches(types.NetworkEthereum, ethereumRe.FindAllString(text, -1))
	appendMatches(types.NetworkSolana, solanaRe.FindAllString(text, -1))
	appendMatches(types.NetworkBitcoin, bitcoinLegacyRe.FindAllString(text, -1))
	appendMatches(types.NetworkBitcoin, bitcoinBech32Re.FindAllString(text, -1))

	return candidates
}

// rejected applies the false-positive filter to a matched address.
func rejected(raw string, network types.Network) bool {
	lower := strings.ToLower(raw)
	for _, token := range rejectTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	if network == types.NetworkEthereum && len(raw) != ethereumAddressLen {
		return true
	}
	return false
}

// contextFor returns up to maxContextLen characters of the sentence
// (split on '.') containing the first occurrence of addr.
func contextFor(text, addr string) string {
	for _, sentence := range strings.Split(text, ".") {
		if strings.Contains(sentence, addr) {
			sentence = strings.TrimSpace(sentence)
			if len(sentence) > maxContextLen {
				sentence = sentence[:maxContextLen]
			}
			return sentence
		}
	}
	return fallbackContext
}
