package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/logging"
)

// Asset identifiers used by the price feed. These match the CoinGecko
// simple-price ids.
const (
	AssetEthereum = "ethereum"
	AssetSolana   = "solana"
	AssetBitcoin  = "bitcoin"
)

// priceCacheTTL bounds how often the upstream feed is hit. Balance
// conversion does not need tick-level prices.
const priceCacheTTL = 5 * time.Minute

// PriceFeed converts native amounts to USD. Quotes come from an HTTP
// simple-price endpoint and are cached; when the feed is unreachable the
// configured fallback prices keep conversions going.
type PriceFeed struct {
	feedURL   string
	client    *http.Client
	fallbacks map[string]float64

	mu        sync.Mutex
	quotes    map[string]float64
	fetchedAt time.Time
}

// NewPriceFeed builds a PriceFeed from oracle configuration.
func NewPriceFeed(cfg config.OracleConfig) *PriceFeed {
	return &PriceFeed{
		feedURL: cfg.PriceFeedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		fallbacks: map[string]float64{
			AssetEthereum: cfg.FallbackETHUSD,
			AssetSolana:   cfg.FallbackSOLUSD,
			AssetBitcoin:  cfg.FallbackBTCUSD,
		},
	}
}

// USD returns the current USD price of one unit of asset. It never fails:
// a dead feed degrades to the fallback price.
func (p *PriceFeed) USD(ctx context.Context, asset string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.fetchedAt) > priceCacheTTL || p.quotes == nil {
		quotes, err := p.fetch(ctx)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("price feed fetch failed, using fallback prices")
			// Keep stale quotes if we have them, push the next attempt out.
			p.fetchedAt = time.Now()
		} else {
			p.quotes = quotes
			p.fetchedAt = time.Now()
		}
	}

	if price, ok := p.quotes[asset]; ok && price > 0 {
		return price
	}
	return p.fallbacks[asset]
}

// fetch pulls quotes for all assets in one request. Response shape:
//
//	{"ethereum":{"usd":2000.0},"solana":{"usd":150.0},"bitcoin":{"usd":60000.0}}
func (p *PriceFeed) fetch(ctx context.Context) (map[string]float64, error) {
	u, err := url.Parse(p.feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid price feed url: %w", err)
	}
	q := u.Query()
	q.Set("ids", AssetEthereum+","+AssetSolana+","+AssetBitcoin)
	q.Set("vs_currencies", "usd")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create price feed request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse price feed response: %w", err)
	}

	quotes := make(map[string]float64, len(payload))
	for asset, quote := range payload {
		quotes[asset] = quote.USD
	}
	return quotes, nil
}
