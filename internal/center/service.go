package center

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"atsnet/internal/audit"
	"atsnet/internal/storage"
	"atsnet/internal/validation"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
	"atsnet/pkg/platform/sentinel"
)

const entityKind = "center"

// Service implements center registration and document updates.
type Service struct {
	store     storage.Store
	validator *validation.Validator
	publisher *audit.Publisher
	clock     func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// New constructs the center service.
func New(store storage.Store, validator *validation.Validator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validator,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new center document. The equipment
// completeness rule runs inside document validation.
func (s *Service) Create(ctx context.Context, actorID string, doc map[string]any) (*Center, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, ok := doc["status"]; !ok {
		doc["status"] = domain.CenterActive.String()
	}
	if err := s.validator.ValidateDocument(ctx, domain.CollectionCenters, doc, validation.OpCreate); err != nil {
		return nil, err
	}

	code, _ := doc["centerCode"].(string)
	var existing map[string]any
	_, err := s.store.FindByField(ctx, domain.CollectionCenters, "centerCode", code, &existing)
	if err == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "center code %s already exists", code)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "center code lookup failed")
	}

	center, err := decode(doc)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	center.ID = domain.NewCenterID()
	center.CreatedAt = now
	center.UpdatedAt = now

	if err := s.store.Insert(ctx, domain.CollectionCenters, center.ID.String(), center); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "center already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist center")
	}

	s.audit(audit.ActionCenterCreated, actorID, center.ID.String(), map[string]any{
		"centerCode": center.CenterCode,
	})
	return center, nil
}

// Get loads one center by id.
func (s *Service) Get(ctx context.Context, centerID domain.CenterID) (*Center, error) {
	var center Center
	if _, err := s.store.Get(ctx, domain.CollectionCenters, centerID.String(), &center); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "center %s not found", centerID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load center")
	}
	return &center, nil
}

// Update validates an operator-tagged update payload, applies it to the
// stored document and persists under the store's version check.
func (s *Service) Update(ctx context.Context, centerID domain.CenterID, actorID string, ops map[string]any) (*Center, error) {
	if len(ops) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "update payload is required")
	}
	if err := s.validator.ValidateUpdate(ctx, domain.CollectionCenters, map[string]any{"id": centerID.String()}, ops); err != nil {
		return nil, err
	}

	var doc map[string]any
	version, err := s.store.Get(ctx, domain.CollectionCenters, centerID.String(), &doc)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "center %s not found", centerID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load center")
	}

	updated, err := storage.ApplyUpdate(doc, ops)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "update could not be applied")
	}
	updated["updatedAt"] = s.clock().UTC().Format(time.RFC3339Nano)

	if err := s.store.Replace(ctx, domain.CollectionCenters, centerID.String(), updated, version); err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, dErrors.New(dErrors.CodeConflict, "center was modified concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist center")
	}

	center, err := decode(updated)
	if err != nil {
		return nil, err
	}
	s.audit(audit.ActionCenterUpdated, actorID, centerID.String(), map[string]any{
		"operators": operatorTags(ops),
	})
	return center, nil
}

func (s *Service) audit(action audit.Action, actorID, entityID string, detail map[string]any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(action, actorID, entityKind, entityID, detail)
}

// decode round-trips a document map into the typed model; both sides share
// the same JSON field names.
func decode(doc map[string]any) (*Center, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode center document")
	}
	var center Center
	if err := json.Unmarshal(payload, &center); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode center document")
	}
	return &center, nil
}

func operatorTags(ops map[string]any) []string {
	tags := make([]string, 0, len(ops))
	for tag := range ops {
		tags = append(tags, tag)
	}
	return tags
}
