// Package circuitbreaker guards flaky upstreams. After enough
// consecutive failures calls are short-circuited until a cooldown
// elapses; one probe then decides whether the upstream recovered.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/whale-tracker/internal/logging"
)

// State is the breaker's position.
type State string

const (
	// StateClosed allows calls through.
	StateClosed State = "closed"
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen State = "open"
	// StateHalfOpen allows a single probe call.
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker open")

// Breaker trips after maxFailures consecutive failures and stays open
// for the cooldown. A successful probe closes it; a failed probe
// reopens it.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration

	mu         sync.Mutex
	state      State
	failures   int
	openedAt   time.Time
	probeInUse bool
}

// NewBreaker creates a breaker named for its upstream.
func NewBreaker(name string, maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		state:       StateClosed,
	}
}

// Do runs fn under breaker protection. When the breaker is open, fn is
// not called and ErrOpen is returned.
func (b *Breaker) Do(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probeInUse = true
		logging.WithField("breaker", b.name).Info("circuit breaker probing upstream")
		return nil
	case StateHalfOpen:
		if b.probeInUse {
			return ErrOpen
		}
		b.probeInUse = true
		return nil
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probeInUse = false
		if err == nil {
			b.state = StateClosed
			b.failures = 0
			logging.WithField("breaker", b.name).Info("circuit breaker closed")
		} else {
			b.trip()
		}
		return
	}

	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.trip()
	}
}

// trip opens the breaker. Callers hold b.mu.
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = time.Now()
	logging.WithFields(map[string]interface{}{
		"breaker":  b.name,
		"failures": b.failures,
	}).Warn("circuit breaker opened")
}

// State returns the breaker's current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}
