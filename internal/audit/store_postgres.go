package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists the audit trail append-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// PostgresSchema is the DDL the store expects.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID        PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	actor_id    TEXT        NOT NULL,
	action      TEXT        NOT NULL,
	entity_kind TEXT        NOT NULL,
	entity_id   TEXT        NOT NULL,
	detail      JSONB
);
CREATE INDEX IF NOT EXISTS audit_events_entity_idx ON audit_events (entity_kind, entity_id, ts);
`

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var detail []byte
	if event.Detail != nil {
		encoded, err := json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("encode audit detail: %w", err)
		}
		detail = encoded
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, ts, actor_id, action, entity_kind, entity_id, detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Timestamp, event.ActorID, string(event.Action),
		event.EntityKind, event.EntityID, detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityKind, entityID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, actor_id, action, entity_kind, entity_id, detail
		   FROM audit_events
		  WHERE entity_kind = $1 AND entity_id = $2
		  ORDER BY ts`,
		entityKind, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event  Event
			id     uuid.UUID
			ts     time.Time
			action string
			detail []byte
		)
		if err := rows.Scan(&id, &ts, &event.ActorID, &action, &event.EntityKind, &event.EntityID, &detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = id
		event.Timestamp = ts
		event.Action = Action(action)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
