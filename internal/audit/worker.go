package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrBufferFull is returned when the async sink cannot accept more events.
var ErrBufferFull = errors.New("audit buffer full")

// DefaultBufferSize is the async sink queue depth.
const DefaultBufferSize = 1024

// drainTimeout bounds how long Run keeps flushing after shutdown.
const drainTimeout = 5 * time.Second

// AsyncSink queues events and forwards them to another sink from Run, so a
// slow broker never holds up a resolution.
type AsyncSink struct {
	next   Sink
	inbox  chan Event
	logger *slog.Logger
}

func NewAsyncSink(next Sink, bufferSize int, logger *slog.Logger) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{next: next, inbox: make(chan Event, bufferSize), logger: logger}
}

// Append enqueues without blocking.
func (s *AsyncSink) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// Run forwards queued events until ctx is cancelled, then flushes what is
// already queued within drainTimeout.
func (s *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			s.Flush(flushCtx)
			cancel()
			return nil
		case event := <-s.inbox:
			// Delivery is bounded by the producer, not by the loop's lifetime.
			s.forward(context.WithoutCancel(ctx), event)
		}
	}
}

// Flush forwards everything already queued and returns once the queue is
// empty.
func (s *AsyncSink) Flush(ctx context.Context) {
	for {
		select {
		case event := <-s.inbox:
			s.forward(ctx, event)
		default:
			return
		}
	}
}

func (s *AsyncSink) forward(ctx context.Context, event Event) {
	if err := s.next.Append(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to forward audit event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err,
		)
	}
}
