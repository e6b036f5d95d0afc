package modelgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalLRU_GetSetHit(t *testing.T) {
	l := newLocalLRU(2)
	l.Set("a", []float32{1, 2, 3})

	v, ok := l.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)
}

func TestLocalLRU_Miss(t *testing.T) {
	l := newLocalLRU(2)
	_, ok := l.Get("missing")
	assert.False(t, ok)
}

func TestLocalLRU_EvictsOldest(t *testing.T) {
	l := newLocalLRU(2)
	l.Set("a", []float32{1})
	l.Set("b", []float32{2})
	l.Set("c", []float32{3}) // evicts "a", the least recently used

	_, ok := l.Get("a")
	assert.False(t, ok)

	_, ok = l.Get("b")
	assert.True(t, ok)
	_, ok = l.Get("c")
	assert.True(t, ok)
}

func TestLocalLRU_GetRefreshesRecency(t *testing.T) {
	l := newLocalLRU(2)
	l.Set("a", []float32{1})
	l.Set("b", []float32{2})
	l.Get("a")           // "a" is now most recently used
	l.Set("c", []float32{3}) // evicts "b" instead of "a"

	_, ok := l.Get("a")
	assert.True(t, ok)
	_, ok = l.Get("b")
	assert.False(t, ok)
}
