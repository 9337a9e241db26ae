package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterSpacesRequests(t *testing.T) {
	l := New(10) // 100ms between grants
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond)
}

func TestLimiterClampsLowQPS(t *testing.T) {
	l := New(0.0001)
	assert.Equal(t, 20*time.Second, l.minInterval)
}

func TestLimiterRespectsContextCancellation(t *testing.T) {
	l := New(1) // 1 second between grants
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	err := l.Wait(cancelCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterAllowsImmediateFirstRequest(t *testing.T) {
	l := New(1)
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
