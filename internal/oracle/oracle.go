// Package oracle resolves on-chain balances for candidate addresses and
// converts them to USD. A balance the oracle cannot resolve is reported as
// unknown, never as zero.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/whale-tracker/internal/circuitbreaker"
	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/logging"
	"github.com/whale-tracker/internal/retry"
	"github.com/whale-tracker/internal/types"
)

// Breaker settings per upstream. A cooldown shorter than the refresh
// interval lets a tripped upstream recover between cycles.
const (
	breakerMaxFailures = 5
	breakerCooldown    = 2 * time.Minute
)

// BalanceFact is the outcome of a single balance lookup. Known is false
// when the lookup failed or no adapter serves the network; USD is only
// meaningful when Known is true.
type BalanceFact struct {
	Address   string
	Network   types.Network
	USD       float64
	Known     bool
	CheckedAt time.Time
}

// NetworkOracle resolves balances for one network.
type NetworkOracle interface {
	Network() types.Network

	// Validate reports whether address is plausibly a real address on
	// this network. Invalid addresses are not worth a network round trip.
	Validate(address string) bool

	// BalanceUSD returns the current native balance of address in USD.
	BalanceUSD(ctx context.Context, address string) (float64, error)
}

// Service dispatches lookups to per-network adapters with a per-address
// time budget and bounded retries.
type Service struct {
	oracles  map[types.Network]NetworkOracle
	breakers map[types.Network]*circuitbreaker.Breaker
	timeout  time.Duration
	retry    *retry.Config
}

// newBreakers builds one breaker per configured network so one failing
// upstream cannot slow lookups on the others.
func newBreakers(oracles map[types.Network]NetworkOracle) map[types.Network]*circuitbreaker.Breaker {
	breakers := make(map[types.Network]*circuitbreaker.Breaker, len(oracles))
	for network := range oracles {
		breakers[network] = circuitbreaker.NewBreaker(string(network), breakerMaxFailures, breakerCooldown)
	}
	return breakers
}

// NewService builds a Service from configuration. Networks without a
// configured upstream get no adapter and resolve to unknown.
func NewService(cfg config.OracleConfig) (*Service, error) {
	prices := NewPriceFeed(cfg)

	oracles := make(map[types.Network]NetworkOracle)

	if cfg.EthereumRPC != "" {
		eth, err := NewEthereumOracle(cfg.EthereumRPC, prices)
		if err != nil {
			return nil, err
		}
		oracles[types.NetworkEthereum] = eth
	}
	if cfg.SolanaRPC != "" {
		oracles[types.NetworkSolana] = NewSolanaOracle(cfg.SolanaRPC, prices)
	}
	if cfg.BitcoinEndpoint != "" {
		oracles[types.NetworkBitcoin] = NewBitcoinOracle(cfg.BitcoinEndpoint, prices)
	}

	return &Service{
		oracles:  oracles,
		breakers: newBreakers(oracles),
		timeout:  cfg.LookupTimeout,
		retry:    retry.OracleConfig(),
	}, nil
}

// NewServiceWithOracles builds a Service around explicit adapters.
func NewServiceWithOracles(timeout time.Duration, oracles ...NetworkOracle) *Service {
	m := make(map[types.Network]NetworkOracle, len(oracles))
	for _, o := range oracles {
		m[o.Network()] = o
	}
	return &Service{oracles: m, breakers: newBreakers(m), timeout: timeout, retry: retry.OracleConfig()}
}

// Lookup resolves the USD balance of address on network. It never returns
// an error: failures, timeouts and unconfigured networks all produce an
// unknown fact.
func (s *Service) Lookup(ctx context.Context, address string, network types.Network) BalanceFact {
	fact := BalanceFact{
		Address:   address,
		Network:   network,
		CheckedAt: time.Now().UTC(),
	}

	o, ok := s.oracles[network]
	if !ok {
		return fact
	}
	if !o.Validate(address) {
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"address": address,
			"network": string(network),
		}).Debug("address failed oracle validation, balance unknown")
		return fact
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var usd float64
	err := s.breakers[network].Do(func() error {
		return retry.Do(lookupCtx, s.retry, func(ctx context.Context, attempt int) error {
			var err error
			usd, err = o.BalanceUSD(ctx, address)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			logging.FromContext(ctx).WithField("network", string(network)).Debug("oracle circuit open, balance unknown")
			return fact
		}
		logging.FromContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"address": address,
			"network": string(network),
		}).Warn("balance lookup failed, balance unknown")
		return fact
	}

	fact.USD = usd
	fact.Known = true
	return fact
}

// Networks returns the networks that have a configured adapter.
func (s *Service) Networks() []types.Network {
	out := make([]types.Network, 0, len(s.oracles))
	for _, n := range types.AllNetworks() {
		if _, ok := s.oracles[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
