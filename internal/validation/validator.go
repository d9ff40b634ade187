// Package validation gates every document write against structural rules,
// field-level semantic checks, and cross-entity business rules.
//
// A call runs phases in order: required fields (create only), shape check,
// bound field validators, kind check, business rules. Failures are fail-fast
// across phases; only the required-fields phase aggregates its findings.
package validation

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

// Operation distinguishes the create and update validation variants.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
)

// ParseOperation normalizes external input to a known operation.
func ParseOperation(s string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(s))) {
	case OpCreate:
		return OpCreate, nil
	case OpUpdate:
		return OpUpdate, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown operation %q", s)
	}
}

// Validator orchestrates the schema registry, field validators, and business
// rules into the single entry point used before every write. It holds no
// mutable state beyond the immutable registry and is safe for concurrent use.
type Validator struct {
	registry *Registry
	clock    func() time.Time
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used by scheduling and year rules.
func WithClock(clock func() time.Time) Option {
	return func(v *Validator) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// WithLogger sets the logger used for boundary fault reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New builds a Validator with its schema registry. The registry is
// constructed once here and shared by every call.
func New(opts ...Option) *Validator {
	v := &Validator{
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.registry = NewRegistry(v.clock)
	return v
}

// Registry exposes the descriptor set for callers that need Describe.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// ValidateDocument checks a document for the given collection and operation.
// It never mutates the document. A nil return means the document may reach
// the store.
func (v *Validator) ValidateDocument(ctx context.Context, collection domain.Collection, doc map[string]any, op Operation) (err error) {
	// Unexpected faults inside a phase (a comparison against an incompatible
	// type, a malformed value deep in the document) must not escape as
	// panics. They surface as a generic validation failure; the cause is
	// logged, not exposed.
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("document validation fault",
				"collection", collection.String(),
				"operation", string(op),
				"cause", r,
			)
			err = dErrors.New(dErrors.CodeValidationFailed, "document validation failed")
		}
	}()

	schema, err := v.registry.Describe(collection)
	if err != nil {
		return err
	}

	if op == OpCreate {
		if err := checkRequired(schema, doc); err != nil {
			return err
		}
	}

	if err := checkShape(schema, doc, op); err != nil {
		return err
	}

	if err := checkFieldValidators(schema, doc); err != nil {
		return err
	}

	if err := checkKinds(schema, doc); err != nil {
		return err
	}

	return v.applyBusinessRules(collection, doc, op)
}

// checkRequired collects every missing required field and reports them
// together. This is the only phase that aggregates.
func checkRequired(schema *Schema, doc map[string]any) error {
	var missing []string
	for _, field := range schema.Required {
		if _, ok := doc[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return dErrors.Newf(dErrors.CodeValidationFailed,
			"missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// checkShape applies the declared create/update shape. The first violation
// fails the call and skips all remaining phases.
func checkShape(schema *Schema, doc map[string]any, op Operation) error {
	shape := schema.CreateShape
	if op == OpUpdate {
		shape = schema.UpdateShape
	}
	if shape == nil {
		return nil
	}
	if err := shape(doc); err != nil {
		return dErrors.Newf(dErrors.CodeValidationFailed, "shape check failed: %v", err)
	}
	return nil
}

// checkFieldValidators runs each bound validator over the fields present.
// The first failing field fails the whole call. Iteration is ordered by
// field name so the reported field is deterministic.
func checkFieldValidators(schema *Schema, doc map[string]any) error {
	fields := make([]string, 0, len(schema.Validators))
	for field := range schema.Validators {
		if _, ok := doc[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !schema.Validators[field](doc[field]) {
			return dErrors.Newf(dErrors.CodeValidationFailed, "validation failed for field: %s", field)
		}
	}
	return nil
}

// checkKinds verifies each present field's run-time value against its
// statically declared kind. The first mismatch fails the call. Null values
// are skipped: absence semantics belong to the required-fields phase.
func checkKinds(schema *Schema, doc map[string]any) error {
	fields := make([]string, 0, len(doc))
	for field := range doc {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		kind, ok := schema.Kinds[field]
		if !ok {
			continue
		}
		value := doc[field]
		if value == nil {
			continue
		}
		if !matchesKind(value, kind) {
			return dErrors.Newf(dErrors.CodeValidationFailed,
				"invalid type for field %s: expected %s", field, kind)
		}
	}
	return nil
}
