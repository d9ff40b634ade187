package validation

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"atsnet/pkg/domain"
)

// DocumentFinder is the narrow lookup surface the resolver consumes from the
// document store.
type DocumentFinder interface {
	FindByID(ctx context.Context, collection domain.Collection, id string) (map[string]any, error)
}

// Resolver answers "does this foreign reference exist right now". Results are
// never cached; every call reflects current store state.
type Resolver struct {
	finder DocumentFinder
}

// NewResolver builds a Resolver over the given store lookup.
func NewResolver(finder DocumentFinder) *Resolver {
	return &Resolver{finder: finder}
}

// ValidateReference resolves value to the store's identifier representation
// and performs a single existence lookup. Any failure, including a store
// error, reports "does not validate"; this method never returns an error
// outward.
func (r *Resolver) ValidateReference(ctx context.Context, collection domain.Collection, field string, value any) bool {
	id, ok := identifierOf(value)
	if !ok {
		return false
	}
	doc, err := r.finder.FindByID(ctx, collection, id)
	if err != nil {
		return false
	}
	return doc != nil
}

// Reference names one foreign-entity field to resolve.
type Reference struct {
	Collection domain.Collection
	Field      string
	Value      any
}

// ValidateReferences resolves several references concurrently and returns the
// fields that failed to resolve, sorted by declaration order. Lookups share
// the caller's context but individual failures never abort the group.
func (r *Resolver) ValidateReferences(ctx context.Context, refs []Reference) []string {
	results := make([]bool, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for i, ref := range refs {
		g.Go(func() error {
			ok := r.ValidateReference(gctx, ref.Collection, ref.Field, ref.Value)
			mu.Lock()
			results[i] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var invalid []string
	for i, ok := range results {
		if !ok {
			invalid = append(invalid, refs[i].Field)
		}
	}
	return invalid
}

// identifierOf converts a reference value to the store's string identifier.
func identifierOf(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case fmt.Stringer:
		s := v.String()
		return s, s != ""
	default:
		return "", false
	}
}
