package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsEvents(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	p := NewPublisher(4, WithClock(func() time.Time { return now }))

	p.Publish(ActionSessionScheduled, "actor-1", "testSession", "ts-1", map[string]any{"k": "v"})

	select {
	case event := <-p.Events():
		assert.Equal(t, ActionSessionScheduled, event.Action)
		assert.Equal(t, "actor-1", event.ActorID)
		assert.Equal(t, "testSession", event.EntityKind)
		assert.Equal(t, "ts-1", event.EntityID)
		assert.Equal(t, now, event.Timestamp)
		assert.NotEqual(t, uuid.Nil, event.ID)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestPublisherDropsOnFullBuffer(t *testing.T) {
	p := NewPublisher(2)

	for i := 0; i < 5; i++ {
		p.Publish(ActionIssueReported, "actor", "testSession", "ts-1", nil)
	}

	assert.Equal(t, int64(3), p.Dropped())
	assert.Len(t, drainEvents(p), 2)
}

func TestWorkerDrainsToStore(t *testing.T) {
	p := NewPublisher(8)
	store := NewMemoryStore()
	worker := NewWorker(store, p.Events(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	p.Publish(ActionSessionStarted, "actor", "testSession", "ts-9", nil)
	p.Publish(ActionSessionCompleted, "actor", "testSession", "ts-9", nil)

	require.Eventually(t, func() bool {
		events, err := store.ListByEntity(context.Background(), "testSession", "ts-9")
		return err == nil && len(events) == 2
	}, time.Second, 5*time.Millisecond)

	events, err := store.ListByEntity(context.Background(), "testSession", "ts-9")
	require.NoError(t, err)
	assert.Equal(t, ActionSessionStarted, events[0].Action)
	assert.Equal(t, ActionSessionCompleted, events[1].Action)

	cancel()
	<-done
}

func TestMemoryStoreIsolatesEntities(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{EntityKind: "testSession", EntityID: "a", Action: ActionSessionStarted}))
	require.NoError(t, store.Append(ctx, Event{EntityKind: "center", EntityID: "a", Action: ActionCenterCreated}))

	events, err := store.ListByEntity(ctx, "testSession", "a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionSessionStarted, events[0].Action)
}

func drainEvents(p *Publisher) []Event {
	var events []Event
	for {
		select {
		case e := <-p.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}
