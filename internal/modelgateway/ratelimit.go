package modelgateway

import (
	"context"

	"golang.org/x/time/rate"
)

// concurrencyGate bounds the number of in-flight calls (semaphore) and
// their issue rate (token bucket), mirroring the teacher's
// internal/budget.Manager per-user rate.Limiter but applied globally to
// the gateway as a whole per the configured max_concurrent_calls and
// calls_per_second.
type concurrencyGate struct {
	sem     chan struct{}
	limiter *rate.Limiter
}

func newConcurrencyGate(maxConcurrent, perSecond int) *concurrencyGate {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if perSecond <= 0 {
		perSecond = 4
	}
	return &concurrencyGate{
		sem:     make(chan struct{}, maxConcurrent),
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Acquire blocks until both the rate limiter and the concurrency
// semaphore admit the call, or ctx is cancelled.
func (g *concurrencyGate) Acquire(ctx context.Context) (release func(), err error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return func() { <-g.sem }, nil
}
