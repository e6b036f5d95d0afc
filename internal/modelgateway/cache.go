package modelgateway

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// localLRU is an in-process cache consulted before Redis, grounded on
// the teacher's embeddings.LocalLRU.
type localLRU struct {
	mu       sync.Mutex
	cap      int
	items    map[string]*list.Element
	order    *list.List
}

type lruEntry struct {
	key   string
	value []float32
}

func newLocalLRU(capacity int) *localLRU {
	if capacity <= 0 {
		capacity = 2048
	}
	return &localLRU{cap: capacity, items: make(map[string]*list.Element), order: list.New()}
}

func (l *localLRU) Get(key string) ([]float32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (l *localLRU) Set(key string, value []float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.items[key]; ok {
		el.Value.(*lruEntry).value = value
		l.order.MoveToFront(el)
		return
	}
	el := l.order.PushFront(&lruEntry{key: key, value: value})
	l.items[key] = el
	if l.order.Len() > l.cap {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.items, oldest.Value.(*lruEntry).key)
		}
	}
}

// embeddingCache is the Redis tier, keyed by a SHA-256 hash of the text.
type embeddingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func newEmbeddingCache(rdb *redis.Client, ttl time.Duration) *embeddingCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &embeddingCache{rdb: rdb, ttl: ttl}
}

func (c *embeddingCache) Get(ctx context.Context, key string) ([]float32, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, "embed:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (c *embeddingCache) Set(ctx context.Context, key string, value []float32) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, "embed:"+key, raw, c.ttl)
}
