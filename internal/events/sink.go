// Package events carries state-transition notifications to the external
// audit-logging module. Publication is fire-and-forget: a slow or full sink
// never blocks or fails the transition that produced the event.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event describes one state transition on a core entity. Amounts are
// fixed-scale decimal strings, the same form they cross every boundary in.
type Event struct {
	EntityType   string    `json:"entityType"` // e.g. "JournalEntry", "Invoice"
	EntityID     string    `json:"entityID"`
	Action       string    `json:"action"` // e.g. "POSTED", "REVERSED", "PAYMENT_APPLIED"
	TenantID     string    `json:"tenantID"`
	Actor        string    `json:"actor"`
	BeforeAmount string    `json:"beforeAmount,omitempty"`
	AfterAmount  string    `json:"afterAmount,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Sink receives state-transition events. Implementations must not block the
// caller; enqueue and return.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// NoopSink discards all events. Useful in tests.
type NoopSink struct{}

// Publish implements Sink.
func (NoopSink) Publish(context.Context, Event) {}

// AsyncSink buffers events on a channel drained by a single goroutine that
// hands them to the delivery func. When the buffer is full the event is
// dropped and counted rather than blocking the publishing transition.
type AsyncSink struct {
	ch      chan Event
	deliver func(Event)
	logger  *slog.Logger

	mu      sync.Mutex
	dropped int64
	done    chan struct{}
	once    sync.Once
}

// NewAsyncSink starts the drain goroutine. deliver runs on that goroutine,
// one event at a time.
func NewAsyncSink(bufferSize int, deliver func(Event), logger *slog.Logger) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &AsyncSink{
		ch:      make(chan Event, bufferSize),
		deliver: deliver,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// Publish implements Sink. It never blocks: a full buffer drops the event.
func (s *AsyncSink) Publish(_ context.Context, event Event) {
	select {
	case s.ch <- event:
	default:
		s.mu.Lock()
		s.dropped++
		n := s.dropped
		s.mu.Unlock()
		s.logger.Warn("audit event dropped, sink buffer full",
			slog.String("entity_type", event.EntityType),
			slog.String("entity_id", event.EntityID),
			slog.Int64("dropped_total", n))
	}
}

// Dropped reports how many events were discarded due to a full buffer.
func (s *AsyncSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting events and waits for buffered ones to be delivered.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
}

func (s *AsyncSink) drain() {
	defer close(s.done)
	for event := range s.ch {
		s.deliver(event)
	}
}
