package circuitbreaker

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisWrapper wraps a Redis client with a circuit breaker and records
// metrics consistently, generalized from the teacher's single
// session-manager instance to carry a name/service pair per caller
// (e.g. "redis"/"progress-stream") the way HTTPWrapper already does.
type RedisWrapper struct {
	client  *redis.Client
	cb      *CircuitBreaker
	name    string
	service string
	logger  *zap.Logger
}

// NewRedisWrapper creates a Redis wrapper with a circuit breaker.
func NewRedisWrapper(client *redis.Client, name, service string, logger *zap.Logger) *RedisWrapper {
	config := GetRedisConfig().ToConfig()
	cb := NewCircuitBreaker(name, config, logger)

	GlobalMetricsCollector.RegisterCircuitBreaker(name, service, cb)

	return &RedisWrapper{
		client:  client,
		cb:      cb,
		name:    name,
		service: service,
		logger:  logger,
	}
}

func (rw *RedisWrapper) record(success bool) {
	GlobalMetricsCollector.RecordRequest(rw.name, rw.service, rw.cb.State(), success)
}

// Ping wraps Redis Ping with circuit breaker.
func (rw *RedisWrapper) Ping(ctx context.Context) *redis.StatusCmd {
	var result *redis.StatusCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.Ping(ctx)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewStatusCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// Get wraps Redis Get with circuit breaker.
func (rw *RedisWrapper) Get(ctx context.Context, key string) *redis.StringCmd {
	var result *redis.StringCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.Get(ctx, key)
		if result.Err() == redis.Nil {
			return nil
		}
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil || result.Err() == redis.Nil)
	rw.record(success)

	if err != nil {
		result = redis.NewStringCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// Set wraps Redis Set with circuit breaker.
func (rw *RedisWrapper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	var result *redis.StatusCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.Set(ctx, key, value, expiration)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewStatusCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// Del wraps Redis Del with circuit breaker.
func (rw *RedisWrapper) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var result *redis.IntCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.Del(ctx, keys...)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewIntCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// Keys wraps Redis Keys with circuit breaker.
func (rw *RedisWrapper) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	var result *redis.StringSliceCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.Keys(ctx, pattern)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewStringSliceCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// XAdd wraps Redis XAdd with circuit breaker, for the Progress Stream's
// publish path.
func (rw *RedisWrapper) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	var result *redis.StringCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.XAdd(ctx, args)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewStringCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// XRead wraps Redis XRead with circuit breaker. redis.Nil (no new
// entries before the Block deadline) is not a breaker failure.
func (rw *RedisWrapper) XRead(ctx context.Context, args *redis.XReadArgs) *redis.XStreamSliceCmd {
	var result *redis.XStreamSliceCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.XRead(ctx, args)
		if result.Err() == redis.Nil {
			return nil
		}
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil || result.Err() == redis.Nil)
	rw.record(success)

	if err != nil {
		result = redis.NewXStreamSliceCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// XRange wraps Redis XRange with circuit breaker, for replaying a
// stream's full history.
func (rw *RedisWrapper) XRange(ctx context.Context, stream, start, stop string) *redis.XMessageSliceCmd {
	var result *redis.XMessageSliceCmd

	err := rw.cb.Execute(ctx, func() error {
		result = rw.client.XRange(ctx, stream, start, stop)
		return result.Err()
	})

	success := err == nil && (result == nil || result.Err() == nil)
	rw.record(success)

	if err != nil {
		result = redis.NewXMessageSliceCmd(ctx)
		result.SetErr(err)
	}

	return result
}

// Close wraps Redis Close.
func (rw *RedisWrapper) Close() error {
	return rw.client.Close()
}

// GetClient returns the underlying Redis client for operations not
// covered by the wrapper.
func (rw *RedisWrapper) GetClient() *redis.Client {
	return rw.client
}

// IsCircuitBreakerOpen returns true if the circuit breaker is open.
func (rw *RedisWrapper) IsCircuitBreakerOpen() bool {
	return rw.cb.State() == StateOpen
}
