package audit

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Publisher buffers events on a channel so emitting an audit event never
// blocks the request path. When the buffer is full the event is dropped and
// counted; audit delivery is best-effort by design, the store is the durable
// record once the worker catches up.
type Publisher struct {
	events  chan Event
	dropped atomic.Int64
	clock   func() time.Time
	logger  *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock overrides the publisher's time source.
func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the logger used when events are dropped.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a publisher with the given buffer capacity.
func NewPublisher(capacity int, opts ...PublisherOption) *Publisher {
	if capacity <= 0 {
		capacity = 1024
	}
	p := &Publisher{
		events: make(chan Event, capacity),
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish stamps and enqueues an event, dropping it if the buffer is full.
func (p *Publisher) Publish(action Action, actorID, entityKind, entityID string, detail map[string]any) {
	event := Event{
		ID:         uuid.New(),
		Timestamp:  p.clock(),
		ActorID:    actorID,
		Action:     action,
		EntityKind: entityKind,
		EntityID:   entityID,
		Detail:     detail,
	}
	select {
	case p.events <- event:
	default:
		p.dropped.Add(1)
		p.logger.Warn("audit event dropped, buffer full",
			"action", string(action),
			"entity_kind", entityKind,
			"dropped_total", p.dropped.Load(),
		)
	}
}

// Events exposes the receive side for the worker.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

// Dropped reports how many events were discarded on a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}
