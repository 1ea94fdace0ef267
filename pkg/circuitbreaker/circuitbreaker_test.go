package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	}
}

func fail(cb *CircuitBreaker) error {
	return cb.Execute(func() error { return errors.New("upstream down") })
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(func() error { return nil })
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(fastConfig())
	assert.Equal(t, StateClosed, cb.State())

	for i := 0; i < 3; i++ {
		require.Error(t, fail(cb))
	}
	assert.Equal(t, StateOpen, cb.State())

	// requests are rejected without invoking fn while open
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New(fastConfig())

	require.Error(t, fail(cb))
	require.Error(t, fail(cb))
	require.NoError(t, succeed(cb))
	require.Error(t, fail(cb))
	require.Error(t, fail(cb))

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(fastConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(60 * time.Millisecond)

	// first probe after the timeout transitions to half-open
	require.NoError(t, succeed(cb))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, succeed(cb))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(fastConfig())
	for i := 0; i < 3; i++ {
		fail(cb)
	}
	time.Sleep(60 * time.Millisecond)

	require.Error(t, fail(cb))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb := New(fastConfig())

	type change struct{ from, to State }
	var changes []change
	cb.OnStateChange(func(from, to State) {
		changes = append(changes, change{from, to})
	})

	for i := 0; i < 3; i++ {
		fail(cb)
	}
	require.Len(t, changes, 1)
	assert.Equal(t, change{StateClosed, StateOpen}, changes[0])
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
