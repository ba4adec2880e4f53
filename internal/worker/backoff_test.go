package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 2*time.Minute, computeRetryBackoff(2))
	assert.Equal(t, 4*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, 32*time.Minute, computeRetryBackoff(6))
	// Capped past the sixth retry
	assert.Equal(t, 32*time.Minute, computeRetryBackoff(10))
}

func TestWithRetryEventualSuccess(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, func(int) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRetryExhausted(t *testing.T) {
	boom := errors.New("still broken")
	attempts := 0
	err := withRetry(context.Background(), 3, func(int) error {
		attempts++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, func(int) error { return errors.New("nope") })
	assert.ErrorIs(t, err, context.Canceled)
}
