package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("relay down")

func testCB() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      50 * time.Millisecond,
	})
}

func TestCBTripsAfterThreshold(t *testing.T) {
	cb := testCB()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errRelay })
	}
	assert.Equal(t, CBOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCBSuccessResetsFailureCount(t *testing.T) {
	cb := testCB()
	_ = cb.Execute(func() error { return errRelay })
	_ = cb.Execute(func() error { return errRelay })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errRelay })
	_ = cb.Execute(func() error { return errRelay })
	assert.Equal(t, CBClosed, cb.State())
}

func TestCBHalfOpenRecovery(t *testing.T) {
	cb := testCB()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errRelay })
	}
	require.Equal(t, CBOpen, cb.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCBHalfOpenFailureReopens(t *testing.T) {
	cb := testCB()
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errRelay })
	}
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errRelay })
	assert.Equal(t, CBOpen, cb.State())
}
