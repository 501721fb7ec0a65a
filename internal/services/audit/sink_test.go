package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingWriter struct {
	mu     sync.Mutex
	events []Event
}

func (w *recordingWriter) Write(_ context.Context, e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, e)
	return nil
}

func (w *recordingWriter) all() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Event(nil), w.events...)
}

type failingWriter struct {
	calls atomic.Int32
}

func (w *failingWriter) Write(context.Context, Event) error {
	w.calls.Add(1)
	return errors.New("audit store down")
}

type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) Write(ctx context.Context, _ Event) error {
	select {
	case <-w.release:
	case <-ctx.Done():
	}
	return nil
}

func TestAsyncSink_WritesQueuedEventsOnClose(t *testing.T) {
	w := &recordingWriter{}
	sink := NewAsyncSink(w, zap.NewNop(), SinkConfig{BufferSize: 16})

	ctx := WithActor(context.Background(), Actor{CustomerID: "cust-1", IPAddress: "10.0.0.1"})
	for i := 0; i < 5; i++ {
		sink.Record(ctx, Event{Action: ActionTransferMoney, Status: StatusOK, Details: map[string]any{"i": i}})
	}
	require.NoError(t, sink.Close(context.Background()))

	events := w.all()
	require.Len(t, events, 5)
	for i, e := range events {
		assert.Equal(t, "cust-1", e.CustomerID)
		assert.Equal(t, "10.0.0.1", e.IPAddress)
		assert.False(t, e.At.IsZero())
		assert.Equal(t, i, e.Details["i"])
	}
	assert.Zero(t, sink.Dropped())
}

func TestAsyncSink_FullBufferDropsWithoutBlocking(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	sink := NewAsyncSink(w, zap.NewNop(), SinkConfig{BufferSize: 1, WriteTimeout: 5 * time.Second})

	start := time.Now()
	for i := 0; i < 10; i++ {
		sink.Record(context.Background(), Event{Action: ActionTransferMoney, Status: StatusOK})
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, sink.Dropped(), int64(8))

	close(w.release)
	require.NoError(t, sink.Close(context.Background()))
}

func TestAsyncSink_BreakerStopsCallingDeadWriter(t *testing.T) {
	w := &failingWriter{}
	core, logs := observer.New(zap.ErrorLevel)
	sink := NewAsyncSink(w, zap.New(core), SinkConfig{
		BufferSize:          16,
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
	})

	for i := 0; i < 6; i++ {
		sink.Record(context.Background(), Event{Action: ActionTransferMoney, Status: StatusError})
	}
	require.NoError(t, sink.Close(context.Background()))

	assert.Equal(t, int32(2), w.calls.Load())
	assert.Equal(t, int64(6), sink.Failed())
	assert.Equal(t, 6, logs.FilterMessage("failed to write audit event").Len())
}

func TestAsyncSink_RecordAfterCloseIsDropped(t *testing.T) {
	w := &recordingWriter{}
	sink := NewAsyncSink(w, zap.NewNop(), SinkConfig{})
	require.NoError(t, sink.Close(context.Background()))

	sink.Record(context.Background(), Event{Action: ActionTransferMoney})

	assert.Equal(t, int64(1), sink.Dropped())
	assert.Empty(t, w.all())
	assert.ErrorIs(t, sink.Close(context.Background()), ErrSinkClosed)
}

func TestActorFromContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	actor, ok := ActorFromContext(WithActor(context.Background(), Actor{CustomerID: "c"}))
	assert.True(t, ok)
	assert.Equal(t, "c", actor.CustomerID)
}
