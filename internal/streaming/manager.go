// Package streaming implements the Progress Stream: a unidirectional,
// long-lived event channel from server to a single subscriber backed by
// Redis Streams, grounded on the teacher's internal/streaming.Manager
// (XADD/XREAD with a per-subject stream key, replay by sequence) but
// narrowed to the three fixed event kinds this domain needs.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/metrics"
)

// Kind is the closed set of Progress Stream event kinds.
type Kind string

const (
	KindProcessing Kind = "processing"
	KindComplete   Kind = "complete"
	KindError      Kind = "error"
)

// Subject identifies which pipeline a stream belongs to.
type Subject string

const (
	SubjectIngestion Subject = "ingestion"
	SubjectQGen      Subject = "qgen"
	SubjectInterview Subject = "interview"
)

// Event is one message on a progress stream.
type Event struct {
	Subject   Subject                `json:"subject"`
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	Progress  int                    `json:"progress"`
	Reason    string                 `json:"reason,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Seq       uint64                 `json:"seq"`
	Timestamp time.Time              `json:"timestamp"`
}

// Manager publishes and replays progress events over Redis Streams.
type Manager struct {
	redis  *circuitbreaker.RedisWrapper
	logger *zap.Logger

	mu          sync.RWMutex
	subscribers map[string]map[chan Event]context.CancelFunc
	shutdownCh  chan struct{}
	wg          sync.WaitGroup
}

// New constructs a Manager over an existing Redis client, wrapped in the
// same circuit breaker every other external client in this process goes
// through.
func New(rdb *redis.Client, logger *zap.Logger) *Manager {
	return &Manager{
		redis:       circuitbreaker.NewRedisWrapper(rdb, "redis", "progress-stream", logger),
		logger:      logger,
		subscribers: make(map[string]map[chan Event]context.CancelFunc),
		shutdownCh:  make(chan struct{}),
	}
}

func streamKey(subject Subject, id string) string {
	return fmt.Sprintf("progress:%s:%s", subject, id)
}

// Publish appends an event to the subject/id stream. A producer must not
// block on subscriber presence: XADD succeeds whether or not anyone is
// currently reading, satisfying the "producer completion is independent
// of subscriber lifecycle" guarantee.
func (m *Manager) Publish(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("streaming: marshal event: %w", err)
	}
	key := streamKey(evt.Subject, evt.ID)
	if err := m.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]interface{}{"event": raw},
	}).Err(); err != nil {
		return fmt.Errorf("streaming: publish to %s: %w", key, err)
	}
	metrics.ProgressEventsPublished.WithLabelValues(string(evt.Subject), string(evt.Kind)).Inc()
	return nil
}

// Subscribe starts a background reader that forwards events for
// subject/id to the returned channel, from the beginning of the stream.
// The caller must drain the channel and call Unsubscribe to release it.
func (m *Manager) Subscribe(subject Subject, id string, buffer int) chan Event {
	return m.SubscribeFrom(subject, id, buffer, "0-0")
}

// SubscribeFrom starts a reader beginning after startID, for resuming a
// dropped connection without re-reading already-seen events.
func (m *Manager) SubscribeFrom(subject Subject, id string, buffer int, startID string) chan Event {
	ch := make(chan Event, buffer)
	ctx, cancel := context.WithCancel(context.Background())

	key := streamKey(subject, id)
	m.mu.Lock()
	subs := m.subscribers[key]
	if subs == nil {
		subs = make(map[chan Event]context.CancelFunc)
		m.subscribers[key] = subs
	}
	subs[ch] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.readLoop(ctx, key, ch, startID)
	return ch
}

func (m *Manager) readLoop(ctx context.Context, key string, ch chan Event, startID string) {
	defer m.wg.Done()
	defer close(ch)

	lastID := startID
	retryDelay := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.shutdownCh:
			return
		default:
		}

		result, err := m.redis.XRead(ctx, &redis.XReadArgs{
			Streams: []string{key, lastID},
			Count:   20,
			Block:   5 * time.Second,
		}).Result()
		if err == redis.Nil {
			retryDelay = time.Second
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("streaming: read error, backing off", zap.String("key", key), zap.Error(err))
			select {
			case <-time.After(retryDelay):
				if retryDelay < 30*time.Second {
					retryDelay *= 2
				}
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, stream := range result {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				raw, ok := msg.Values["event"].(string)
				if !ok {
					continue
				}
				var evt Event
				if err := json.Unmarshal([]byte(raw), &evt); err != nil {
					continue
				}
				select {
				case ch <- evt:
				case <-ctx.Done():
					return
				}
				if evt.Kind == KindComplete || evt.Kind == KindError {
					return
				}
			}
		}
	}
}

// Unsubscribe cancels a subscriber's reader and releases its bookkeeping.
// The channel itself is closed by the reader goroutine.
func (m *Manager) Unsubscribe(subject Subject, id string, ch chan Event) {
	key := streamKey(subject, id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if subs, ok := m.subscribers[key]; ok {
		if cancel, ok := subs[ch]; ok {
			cancel()
			delete(subs, ch)
		}
		if len(subs) == 0 {
			delete(m.subscribers, key)
		}
	}
}

// ReplaySince returns all events recorded for subject/id from the
// beginning of the stream, for a subscriber reconnecting after a drop.
func (m *Manager) ReplaySince(ctx context.Context, subject Subject, id string) ([]Event, error) {
	key := streamKey(subject, id)
	msgs, err := m.redis.XRange(ctx, key, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("streaming: replay %s: %w", key, err)
	}
	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["event"].(string)
		if !ok {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			continue
		}
		events = append(events, evt)
	}
	return events, nil
}

// Shutdown stops all active readers.
func (m *Manager) Shutdown() {
	close(m.shutdownCh)
	m.wg.Wait()
}
