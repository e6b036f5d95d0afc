package modelgateway

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, baseURL string) *Gateway {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(Config{
		BaseURL:            baseURL,
		CallTimeout:        2 * time.Second,
		MaxRetries:         2,
		BackoffBase:        time.Millisecond,
		BackoffMax:         5 * time.Millisecond,
		MaxConcurrentCalls: 4,
		CallsPerSecond:     1000,
		EmbeddingDim:       3,
	}, rdb, zap.NewNop())
}

func TestEmbed_BadRequestStatusIsPermanentAndDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Embed(t.Context(), "성적이 우수합니다")

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a non-5xx status must not be retried")
}

func TestEmbed_DimensionMismatchIsPermanentAndDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Embed(t.Context(), "성적이 우수합니다")

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a constant dimension mismatch must not be retried")
}

func TestEmbed_ServerErrorIsTransientAndRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Embed(t.Context(), "성적이 우수합니다")

	assert.Error(t, err)
	assert.Greater(t, atomic.LoadInt32(&calls), int32(1), "a 5xx status should be retried up to MaxRetries")
}

func TestReformatPrompt_AppendsSchemaError(t *testing.T) {
	out := reformatPrompt("original prompt", errors.New("missing field: score"))

	assert.Contains(t, out, "original prompt")
	assert.Contains(t, out, "missing field: score")
	assert.Contains(t, out, "ONLY valid JSON")
}

func TestEmbedKey_DeterministicAndDistinct(t *testing.T) {
	a := embedKey("성적이 우수합니다")
	b := embedKey("성적이 우수합니다")
	c := embedKey("다른 텍스트")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
