package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher's channel into the store. A store failure is
// logged and the event is lost; the trail is best-effort, not transactional
// with the triggering write.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("audit append failed",
					"action", string(event.Action),
					"entity_id", event.EntityID,
					"error", err,
				)
			}
		}
	}
}
