package interview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/smeasylife/highlog-ai/internal/circuitbreaker"
	"github.com/smeasylife/highlog-ai/internal/modelgateway"
	"github.com/smeasylife/highlog-ai/internal/vectorstore"
)

// newTestNodes wires a Nodes against an httptest-backed Model Gateway
// (embeddings only; Generate is unused by RetrieveNewTopic) and a
// sqlmock-backed vector store, so retrieveTopic's embed-then-search path
// runs for real without any external dependency.
func newTestNodes(t *testing.T) (*Nodes, sqlmock.Sqlmock) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	t.Cleanup(srv.Close)

	gw := modelgateway.New(modelgateway.Config{
		BaseURL:            srv.URL,
		CallTimeout:        2 * time.Second,
		MaxRetries:         1,
		BackoffBase:        time.Millisecond,
		BackoffMax:         5 * time.Millisecond,
		MaxConcurrentCalls: 4,
		CallsPerSecond:     1000,
		EmbeddingDim:       3,
	}, nil, zaptest.NewLogger(t))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	wrapper := circuitbreaker.NewDatabaseWrapper(db, zaptest.NewLogger(t))
	vectors := vectorstore.New(wrapper, 3, zaptest.NewLogger(t))

	mock.ExpectQuery("SELECT (.+) FROM chunks").
		WillReturnRows(sqlmock.NewRows([]string{"id", "record_id", "chunk_index", "text", "category", "embedding", "score"}))

	return &Nodes{Gateway: gw, Vectors: vectors}, mock
}

func TestRetrieveNewTopic_RecordsPriorTopicNotNewOne(t *testing.T) {
	n, _ := newTestNodes(t)
	s := NewState("t1", "r1", "Normal", 900)
	s.CurrentSubTopic = "리더십"

	err := n.RetrieveNewTopic(context.Background(), s, "봉사")

	require.NoError(t, err)
	assert.Equal(t, []string{"리더십"}, s.AskedSubTopics, "the topic being left behind must be recorded, not the one just entered")
	assert.Equal(t, "봉사", s.CurrentSubTopic)
	assert.NotContains(t, s.AskedSubTopics, "봉사", "the new topic is active, not yet exhausted")
}

func TestRetrieveNewTopic_ResetsFollowUpCount(t *testing.T) {
	n, _ := newTestNodes(t)
	s := NewState("t1", "r1", "Normal", 900)
	s.CurrentSubTopic = "리더십"
	s.FollowUpCount = 2

	err := n.RetrieveNewTopic(context.Background(), s, "봉사")

	require.NoError(t, err)
	assert.Equal(t, 0, s.FollowUpCount)
}
