package modelgateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyGate_LimitsInFlightCalls(t *testing.T) {
	g := newConcurrencyGate(1, 1000)

	release, err := g.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(ctx)
	assert.Error(t, err, "second acquire should block until the first is released")

	release()
	_, err = g.Acquire(context.Background())
	assert.NoError(t, err)
}

func TestConcurrencyGate_RespectsContextCancellation(t *testing.T) {
	g := newConcurrencyGate(1, 1000)
	_, err := g.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Acquire(ctx)
	assert.Error(t, err)
}
