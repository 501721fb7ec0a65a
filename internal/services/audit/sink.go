package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrSinkClosed is returned by Close when called twice.
var ErrSinkClosed = errors.New("audit sink closed")

// SinkConfig tunes an AsyncSink.
type SinkConfig struct {
	BufferSize   int
	WriteTimeout time.Duration
	// ConsecutiveFailures opens the breaker; OpenTimeout is how long it
	// stays open before a trial write.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// AsyncSink queues events on a bounded buffer and writes them from a single
// background worker. A full buffer drops the event.
type AsyncSink struct {
	writer  Writer
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
	cfg     SinkConfig

	events  chan Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncSink starts the worker. Call Close to drain and stop it.
func NewAsyncSink(writer Writer, logger *zap.Logger, cfg SinkConfig) *AsyncSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AsyncSink{
		writer: writer,
		logger: logger,
		cfg:    cfg,
		events: make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "audit-writer",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("audit circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	go s.run()
	return s
}

// Record enqueues event without blocking.
func (s *AsyncSink) Record(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if actor, ok := ActorFromContext(ctx); ok {
		if event.CustomerID == "" {
			event.CustomerID = actor.CustomerID
		}
		if event.IPAddress == "" {
			event.IPAddress = actor.IPAddress
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(event, "sink closed")
		return
	}

	select {
	case s.events <- event:
	default:
		s.drop(event, "buffer full")
	}
}

// Dropped is the number of events discarded because the buffer was full or
// the sink was closed.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

// Failed is the number of events the writer could not persist.
func (s *AsyncSink) Failed() int64 {
	return s.failed.Load()
}

// Close stops accepting events and waits until the buffered ones are
// written or ctx ends.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for event := range s.events {
		s.write(event)
	}
}

func (s *AsyncSink) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.writer.Write(ctx, event)
	})
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to write audit event",
			zap.String("action", event.Action),
			zap.String("status", event.Status),
			zap.Error(err))
	}
}

func (s *AsyncSink) drop(event Event, reason string) {
	s.dropped.Add(1)
	s.logger.Warn("audit event dropped",
		zap.String("reason", reason),
		zap.String("action", event.Action),
		zap.String("status", event.Status))
}
