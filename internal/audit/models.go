// Package audit captures the compliance trail: who did what to which entity
// and when. Events are emitted from services, buffered by the publisher, and
// drained to a store by the worker.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names the audited operations.
type Action string

const (
	ActionSessionScheduled   Action = "session_scheduled"
	ActionSessionStarted     Action = "session_started"
	ActionSessionCompleted   Action = "session_completed"
	ActionSessionInterrupted Action = "session_interrupted"
	ActionSessionResumed     Action = "session_resumed"
	ActionSessionCancelled   Action = "session_cancelled"
	ActionSessionVerified    Action = "session_verified"
	ActionSessionRejected    Action = "session_rejected"
	ActionIssueReported      Action = "issue_reported"
	ActionCenterCreated      Action = "center_created"
	ActionCenterUpdated      Action = "center_updated"
	ActionVehicleRegistered  Action = "vehicle_registered"
	ActionVehicleUpdated     Action = "vehicle_updated"
	ActionUserLoggedIn       Action = "user_logged_in"
)

// Event is one audit trail entry. Keep it transport-agnostic so stores can
// fan out.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActorID    string         `json:"actorId"`
	Action     Action         `json:"action"`
	EntityKind string         `json:"entityKind"`
	EntityID   string         `json:"entityId"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Store persists events append-only, oldest first per entity.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityKind, entityID string) ([]Event, error)
}
