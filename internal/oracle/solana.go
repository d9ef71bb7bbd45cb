package oracle

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/whale-tracker/internal/types"
)

// lamportsPerSOL converts lamports to SOL.
const lamportsPerSOL = 1e9

// SolanaOracle resolves native SOL balances over JSON-RPC.
type SolanaOracle struct {
	client *rpc.Client
	prices *PriceFeed
}

// NewSolanaOracle creates an oracle against the given RPC endpoint.
func NewSolanaOracle(rpcURL string, prices *PriceFeed) *SolanaOracle {
	return &SolanaOracle{client: rpc.New(rpcURL), prices: prices}
}

func (o *SolanaOracle) Network() types.Network {
	return types.NetworkSolana
}

// Validate checks that address decodes to a 32-byte public key. Base58
// strings of the right length are not necessarily valid keys.
func (o *SolanaOracle) Validate(address string) bool {
	raw, err := base58.Decode(address)
	return err == nil && len(raw) == solana.PublicKeyLength
}

// BalanceUSD reads the finalized lamport balance and converts it at the
// current SOL price.
func (o *SolanaOracle) BalanceUSD(ctx context.Context, address string) (float64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid solana address %s: %w", address, err)
	}

	out, err := o.client.GetBalance(ctx, pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed for %s: %w", address, err)
	}

	sol := float64(out.Value) / lamportsPerSOL
	return sol * o.prices.USD(ctx, AssetSolana), nil
}
