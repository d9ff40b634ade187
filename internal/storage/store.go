// Package storage provides the narrow document-store surface this core
// consumes. Query planning, indexing, and retention live in the backing
// store, not here.
package storage

import (
	"context"

	"atsnet/pkg/domain"
)

// Store is interface-driven so services stay testable and the in-memory and
// PostgreSQL implementations swap without rewiring business code.
//
// Writes carry an optimistic version: Replace fails with
// sentinel.ErrVersionMismatch when the stored version moved, which backs the
// single-writer-per-session discipline at the persistence layer.
type Store interface {
	// Insert creates a document with version 1. An existing id yields
	// sentinel.ErrConflict.
	Insert(ctx context.Context, collection domain.Collection, id string, doc any) error

	// Get decodes the document into out and returns its current version.
	Get(ctx context.Context, collection domain.Collection, id string, out any) (int64, error)

	// Replace overwrites the document if the stored version equals
	// expectedVersion, then increments it.
	Replace(ctx context.Context, collection domain.Collection, id string, doc any, expectedVersion int64) error

	// FindByField locates the first document whose top-level field equals
	// value. Used for unique-field lookups (email, centerCode, sessionCode).
	FindByField(ctx context.Context, collection domain.Collection, field string, value string, out any) (int64, error)

	// Delete removes a document. Missing ids yield sentinel.ErrNotFound.
	Delete(ctx context.Context, collection domain.Collection, id string) error

	// FindByID returns the raw document view, or sentinel.ErrNotFound. This
	// is the lookup the reference resolver consumes.
	FindByID(ctx context.Context, collection domain.Collection, id string) (map[string]any, error)
}
