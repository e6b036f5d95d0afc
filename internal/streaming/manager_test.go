package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*Manager, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, zap.NewNop()), rdb
}

func TestPublishAndSubscribe_DeliversEventsInOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ch := m.Subscribe(SubjectIngestion, "rec-1", 10)
	defer m.Unsubscribe(SubjectIngestion, "rec-1", ch)

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, Event{Subject: SubjectIngestion, ID: "rec-1", Kind: KindProcessing, Progress: 40}))
	require.NoError(t, m.Publish(ctx, Event{Subject: SubjectIngestion, ID: "rec-1", Kind: KindComplete, Progress: 100}))

	first := recvEvent(t, ch)
	assert.Equal(t, KindProcessing, first.Kind)
	assert.Equal(t, 40, first.Progress)

	second := recvEvent(t, ch)
	assert.Equal(t, KindComplete, second.Kind)
}

func TestSubscribe_ClosesChannelAfterTerminalEvent(t *testing.T) {
	m, _ := newTestManager(t)
	ch := m.Subscribe(SubjectQGen, "rec-2", 10)

	require.NoError(t, m.Publish(context.Background(), Event{Subject: SubjectQGen, ID: "rec-2", Kind: KindError, Reason: "boom"}))

	evt := recvEvent(t, ch)
	assert.Equal(t, KindError, evt.Kind)

	_, ok := <-ch
	assert.False(t, ok, "channel should close once a terminal event is delivered")
}

func TestReplaySince_ReturnsAllPublishedEvents(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, Event{Subject: SubjectInterview, ID: "t1", Kind: KindProcessing, Progress: 10}))
	require.NoError(t, m.Publish(ctx, Event{Subject: SubjectInterview, ID: "t1", Kind: KindProcessing, Progress: 60}))
	require.NoError(t, m.Publish(ctx, Event{Subject: SubjectInterview, ID: "t1", Kind: KindComplete, Progress: 100}))

	events, err := m.ReplaySince(ctx, SubjectInterview, "t1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 10, events[0].Progress)
	assert.Equal(t, KindComplete, events[2].Kind)
}

func TestUnsubscribe_StopsDeliveringFurtherEvents(t *testing.T) {
	m, _ := newTestManager(t)
	ch := m.Subscribe(SubjectIngestion, "rec-3", 10)

	m.Unsubscribe(SubjectIngestion, "rec-3", ch)

	_, ok := <-ch
	assert.False(t, ok, "unsubscribing should close the channel")
}

func recvEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
