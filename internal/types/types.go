// Package types provides common type definitions for the whale tracker system.
package types

// Network represents supported blockchain networks
type Network string

const (
	// NetworkEthereum represents the Ethereum mainnet
	NetworkEthereum Network = "ethereum"
	// NetworkSolana represents the Solana network
	NetworkSolana Network = "solana"
	// NetworkBitcoin represents the Bitcoin network
	NetworkBitcoin Network = "bitcoin"
)

// AllNetworks returns the networks in extractor tie-break order.
// When a string matches multiple network shapes it is classified by the
// first network in this order.
func AllNetworks() []Network {
	return []Network{NetworkEthereum, NetworkSolana, NetworkBitcoin}
}

// ParseNetwork parses a network name; ok is false for unknown names.
func ParseNetwork(s string) (Network, bool) {
	switch Network(s) {
	case NetworkEthereum, NetworkSolana, NetworkBitcoin:
		return Network(s), true
	default:
		return "", false
	}
}

// ConfidenceLevel represents how confident the pipeline is in a whale record
type ConfidenceLevel string

const (
	// ConfidenceHigh represents records with a composite score of 80 or above
	ConfidenceHigh ConfidenceLevel = "high"
	// ConfidenceMedium represents records with a composite score of 60 or above
	ConfidenceMedium ConfidenceLevel = "medium"
	// ConfidenceLow represents all other accepted records
	ConfidenceLow ConfidenceLevel = "low"
)

// ConfidenceForScore derives the confidence level from a composite score.
func ConfidenceForScore(score int) ConfidenceLevel {
	switch {
	case score >= 80:
		return ConfidenceHigh
	case score >= 60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Common service error codes surfaced by the pipeline and the API.
const (
	// ErrCodeInvalidNetwork is returned when a network filter is not recognized
	ErrCodeInvalidNetwork = "INVALID_NETWORK"
	// ErrCodeOracleUnknown is returned when a balance lookup could not be resolved
	ErrCodeOracleUnknown = "ORACLE_UNKNOWN"
	// ErrCodeConfigInvalid is returned when required configuration is missing
	ErrCodeConfigInvalid = "CONFIG_INVALID"
)
