package oracle

import (
	"context"
	"fmt"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/whale-tracker/internal/types"
)

var ethereumAddrRe = regexp.MustCompile("^0x[a-fA-F0-9]{40}$")

// weiPerEther converts wei to ether.
var weiPerEther = big.NewFloat(1e18)

// EthereumOracle resolves native ETH balances over JSON-RPC.
type EthereumOracle struct {
	client *ethclient.Client
	prices *PriceFeed
}

// NewEthereumOracle dials the RPC endpoint.
func NewEthereumOracle(rpcURL string, prices *PriceFeed) (*EthereumOracle, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ethereum rpc: %w", err)
	}
	return &EthereumOracle{client: client, prices: prices}, nil
}

func (o *EthereumOracle) Network() types.Network {
	return types.NetworkEthereum
}

func (o *EthereumOracle) Validate(address string) bool {
	return ethereumAddrRe.MatchString(address)
}

// BalanceUSD reads the latest native balance and converts it at the
// current ETH price.
func (o *EthereumOracle) BalanceUSD(ctx context.Context, address string) (float64, error) {
	wei, err := o.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("eth_getBalance failed for %s: %w", address, err)
	}

	ether := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther)
	eth, _ := ether.Float64()

	return eth * o.prices.USD(ctx, AssetEthereum), nil
}

// Close releases the RPC connection.
func (o *EthereumOracle) Close() {
	if o.client != nil {
		o.client.Close()
	}
}
