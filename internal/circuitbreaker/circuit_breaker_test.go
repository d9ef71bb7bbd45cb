package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		err := b.Do(func() error { return errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, StateOpen, b.State())

	// Calls are rejected without invoking the function.
	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	require.Error(t, b.Do(func() error { return errUpstream }))
	require.Error(t, b.Do(func() error { return errUpstream }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return errUpstream }))
	require.Error(t, b.Do(func() error { return errUpstream }))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)

	require.Error(t, b.Do(func() error { return errUpstream }))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)

	require.Error(t, b.Do(func() error { return errUpstream }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, b.Do(func() error { return errUpstream }))
	assert.Equal(t, StateOpen, b.State())
}
