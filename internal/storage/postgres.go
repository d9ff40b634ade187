package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"atsnet/pkg/domain"
	"atsnet/pkg/platform/sentinel"
)

// Postgres persists documents as JSONB rows keyed by (collection, id).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the store expects. Applied by migrations in deployment;
// integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	version    BIGINT      NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_doc_idx ON documents USING gin (doc);
`

func (p *Postgres) Insert(ctx context.Context, collection domain.Collection, id string, doc any) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)`,
		collection.String(), id, encoded,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, collection domain.Collection, id string, out any) (int64, error) {
	var (
		encoded []byte
		version int64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT doc, version FROM documents WHERE collection = $1 AND id = $2`,
		collection.String(), id,
	).Scan(&encoded, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("get document: %w", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return 0, err
	}
	return version, nil
}

func (p *Postgres) Replace(ctx context.Context, collection domain.Collection, id string, doc any, expectedVersion int64) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx,
		`UPDATE documents
		    SET doc = $4, version = version + 1, updated_at = now()
		  WHERE collection = $1 AND id = $2 AND version = $3`,
		collection.String(), id, expectedVersion, encoded,
	)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		err := p.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
			collection.String(), id,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("replace document: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	return nil
}

func (p *Postgres) FindByField(ctx context.Context, collection domain.Collection, field string, value string, out any) (int64, error) {
	var (
		encoded []byte
		version int64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT doc, version FROM documents WHERE collection = $1 AND doc ->> $2 = $3 LIMIT 1`,
		collection.String(), field, value,
	).Scan(&encoded, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find document by field: %w", err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return 0, err
	}
	return version, nil
}

func (p *Postgres) Delete(ctx context.Context, collection domain.Collection, id string) error {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection.String(), id,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, collection domain.Collection, id string) (map[string]any, error) {
	var doc map[string]any
	if _, err := p.Get(ctx, collection, id, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
