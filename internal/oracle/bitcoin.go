package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/whale-tracker/internal/types"
)

var bitcoinAddrRe = regexp.MustCompile(`^([13][1-9A-HJ-NP-Za-km-z]{24,33}|bc1[a-z0-9]{39,59})$`)

// satoshiPerBTC converts satoshi to BTC.
const satoshiPerBTC = 1e8

// BitcoinOracle resolves BTC balances through a blockchain.info-style
// address endpoint. The endpoint is optional infrastructure; when it is
// not configured no BitcoinOracle is constructed and bitcoin balances
// stay unknown.
type BitcoinOracle struct {
	endpoint string
	client   *http.Client
	prices   *PriceFeed
}

// NewBitcoinOracle creates an oracle against endpoint, which must accept
// GET {endpoint}/{address} and respond with a final_balance in satoshi.
func NewBitcoinOracle(endpoint string, prices *PriceFeed) *BitcoinOracle {
	return &BitcoinOracle{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		prices:   prices,
	}
}

func (o *BitcoinOracle) Network() types.Network {
	return types.NetworkBitcoin
}

func (o *BitcoinOracle) Validate(address string) bool {
	return bitcoinAddrRe.MatchString(address)
}

// BalanceUSD fetches the address balance and converts it at the current
// BTC price.
func (o *BitcoinOracle) BalanceUSD(ctx context.Context, address string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/"+address, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create balance request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance request failed for %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &types.ServiceError{
			Code:    types.ErrCodeOracleUnknown,
			Message: fmt.Sprintf("bitcoin balance endpoint returned status %d", resp.StatusCode),
		}
	}

	var payload struct {
		FinalBalance int64 `json:"final_balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to parse balance response for %s: %w", address, err)
	}

	btc := float64(payload.FinalBalance) / satoshiPerBTC
	return btc * o.prices.USD(ctx, AssetBitcoin), nil
}
