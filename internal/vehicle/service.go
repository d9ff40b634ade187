package vehicle

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

const entityKind = "vehicle"

// Service implements vehicle registration and document updates.
type Service struct {
	store     storage.Store
	validator *validation.Validator
	resolver  *validation.Resolver
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

// New constructs the vehicle service.
func New(store storage.Store, validator *validation.Validator, resolver *validation.Resolver, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validator,
		resolver:  resolver,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates and persists a new vehicle document. An ownerId, when
// supplied, must resolve to an existing user.
func (s *Service) Register(ctx context.Context, actorID string, doc map[string]any) (*Vehicle, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := s.validator.ValidateDocument(ctx, domain.CollectionVehicles, doc, validation.OpCreate); err != nil {
		return nil, err
	}

	if owner, ok := doc["ownerId"].(string); ok && owner != "" {
		if !s.resolver.ValidateReference(ctx, domain.CollectionUsers, "ownerId", owner) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unresolved references: [ownerId]")
		}
	}

	registration, _ := doc["registrationNumber"].(string)
	var existing map[string]any
	_, err := s.store.FindByField(ctx, domain.CollectionVehicles, "registrationNumber", registration, &existing)
	if err == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "registration number %s already exists", registration)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registration lookup failed")
	}

	vehicle, err := decode(doc)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	vehicle.ID = domain.NewVehicleID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if err := s.store.Insert(ctx, domain.CollectionVehicles, vehicle.ID.String(), vehicle); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "vehicle already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist vehicle")
	}

	s.audit(audit.ActionVehicleRegistered, actorID, vehicle.ID.String(), map[string]any{
		"registrationNumber": vehicle.RegistrationNumber,
	})
	return vehicle, nil
}

// Get loads one vehicle by id.
func (s *Service) Get(ctx context.Context, vehicleID domain.VehicleID) (*Vehicle, error) {
	var vehicle Vehicle
	if _, err := s.store.Get(ctx, domain.CollectionVehicles, vehicleID.String(), &vehicle); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "vehicle %s not found", vehicleID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle")
	}
	return &vehicle, nil
}

// Update validates an operator-tagged update payload, applies it to the
// stored document and persists under the store's version check.
func (s *Service) Update(ctx context.Context, vehicleID domain.VehicleID, actorID string, ops map[string]any) (*Vehicle, error) {
	if len(ops) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "update payload is required")
	}
	if err := s.validator.ValidateUpdate(ctx, domain.CollectionVehicles, map[string]any{"id": vehicleID.String()}, ops); err != nil {
		return nil, err
	}

	var doc map[string]any
	version, err := s.store.Get(ctx, domain.CollectionVehicles, vehicleID.String(), &doc)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "vehicle %s not found", vehicleID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle")
	}

	updated, err := storage.ApplyUpdate(doc, ops)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidationFailed, "update could not be applied")
	}
	updated["updatedAt"] = s.clock().UTC().Format(time.RFC3339Nano)

	if err := s.store.Replace(ctx, domain.CollectionVehicles, vehicleID.String(), updated, version); err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, dErrors.New(dErrors.CodeConflict, "vehicle was modified concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist vehicle")
	}

	vehicle, err := decode(updated)
	if err != nil {
		return nil, err
	}
	s.audit(audit.ActionVehicleUpdated, actorID, vehicleID.String(), nil)
	return vehicle, nil
}

// VerifyDocument marks one compliance document verified by the acting
// officer.
func (s *Service) VerifyDocument(ctx context.Context, vehicleID domain.VehicleID, verifiedBy domain.UserID, documentType string) (*Vehicle, error) {
	if documentType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "document type is required")
	}

	var vehicle Vehicle
	version, err := s.store.Get(ctx, domain.CollectionVehicles, vehicleID.String(), &vehicle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "vehicle %s not found", vehicleID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vehicle")
	}

	record, ok := vehicle.Documents[documentType]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "vehicle has no %s document", documentType)
	}
	now := s.clock()
	record.Verified = true
	record.VerifiedBy = verifiedBy.String()
	record.VerifiedAt = &now
	vehicle.Documents[documentType] = record
	vehicle.UpdatedAt = now

	if err := s.store.Replace(ctx, domain.CollectionVehicles, vehicleID.String(), vehicle, version); err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, dErrors.New(dErrors.CodeConflict, "vehicle was modified concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist vehicle")
	}

	s.audit(audit.ActionVehicleUpdated, verifiedBy.String(), vehicleID.String(), map[string]any{
		"documentType": documentType,
		"verified":     true,
	})
	return &vehicle, nil
}

func (s *Service) audit(action audit.Action, actorID, entityID string, detail map[string]any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(action, actorID, entityKind, entityID, detail)
}

func decode(doc map[string]any) (*Vehicle, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode vehicle document")
	}
	var vehicle Vehicle
	if err := json.Unmarshal(payload, &vehicle); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode vehicle document")
	}
	return &vehicle, nil
}
