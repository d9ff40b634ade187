// Package service orchestrates test-session operations: every write is gated
// by the document validator, the state machine drives status changes, and the
// store's version check enforces single-writer-per-session.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"atsnet/internal/audit"
	"atsnet/internal/inspection"
	"atsnet/internal/platform/metrics"
	"atsnet/internal/storage"
	"atsnet/internal/validation"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
	"atsnet/pkg/platform/sentinel"
)

const entityKind = "testSession"

// Service exposes the test-session lifecycle to transport handlers.
type Service struct {
	store     storage.Store
	validator *validation.Validator
	resolver  *validation.Resolver
	publisher *audit.Publisher
	metrics   *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the session service.
func New(store storage.Store, validator *validation.Validator, resolver *validation.Resolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("document validator is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("reference resolver is required")
	}
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
	return s, nil
}

// Schedule validates and persists a new session in the scheduled state. The
// incoming document is the raw request body; a session code is generated when
// the caller did not supply one.
func (s *Service) Schedule(ctx context.Context, actorID string, doc map[string]any) (*inspection.TestSession, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, ok := doc["sessionCode"]; !ok {
		doc["sessionCode"] = domain.NewSessionCode().String()
	}
	if _, ok := doc["status"]; !ok {
		doc["status"] = domain.SessionScheduled.String()
	}

	if err := s.validator.ValidateDocument(ctx, domain.CollectionSessions, doc, validation.OpCreate); err != nil {
		s.countValidationFailure()
		return nil, err
	}

	code, err := domain.ParseSessionCode(stringField(doc, "sessionCode"))
	if err != nil {
		return nil, err
	}
	vehicleID, err := domain.ParseVehicleID(stringField(doc, "vehicleId"))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "vehicleId is not a valid id")
	}
	centerID, err := domain.ParseCenterID(stringField(doc, "centerId"))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "centerId is not a valid id")
	}
	operatorID, err := domain.ParseUserID(stringField(doc, "operatorId"))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "operatorId is not a valid id")
	}

	refs := []validation.Reference{
		{Collection: domain.CollectionVehicles, Field: "vehicleId", Value: vehicleID.String()},
		{Collection: domain.CollectionCenters, Field: "centerId", Value: centerID.String()},
		{Collection: domain.CollectionUsers, Field: "operatorId", Value: operatorID.String()},
	}
	if invalid := s.resolver.ValidateReferences(ctx, refs); len(invalid) > 0 {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unresolved references: %v", invalid)
	}

	// Session codes are unique across the collection.
	var existing map[string]any
	_, err = s.store.FindByField(ctx, domain.CollectionSessions, "sessionCode", code.String(), &existing)
	if err == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict, "session code %s already exists", code)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session code lookup failed")
	}

	now := s.clock()
	scheduledAt := now
	if raw, ok := doc["scheduledTime"]; ok {
		if at, ok := timeField(raw); ok {
			scheduledAt = at
		}
	}

	session := inspection.NewSession(domain.NewSessionID(), code, vehicleID, centerID, operatorID, scheduledAt, now)
	if supervisor := stringField(doc, "supervisorId"); supervisor != "" {
		supervisorID, err := domain.ParseUserID(supervisor)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "supervisorId is not a valid id")
		}
		session.SupervisorID = &supervisorID
	}

	if err := s.store.Insert(ctx, domain.CollectionSessions, session.ID.String(), session); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "session already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}

	if s.metrics != nil {
		s.metrics.SessionsScheduled.Inc()
	}
	s.audit(audit.ActionSessionScheduled, actorID, session.ID.String(), map[string]any{
		"sessionCode": code.String(),
		"vehicleId":   vehicleID.String(),
		"centerId":    centerID.String(),
	})
	return session, nil
}

// Get loads one session by id.
func (s *Service) Get(ctx context.Context, sessionID domain.SessionID) (*inspection.TestSession, error) {
	session, _, err := s.load(ctx, sessionID)
	return session, err
}

// Start begins execution of a scheduled session.
func (s *Service) Start(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.Start(s.clock())
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
		s.metrics.SessionsActive.Inc()
	}
	s.audit(audit.ActionSessionStarted, actorID, sessionID.String(), nil)
	return session, nil
}

// Complete ends execution of an in-progress session, fixing end time and
// duration.
func (s *Service) Complete(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.End(s.clock())
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionsCompleted.Inc()
		s.metrics.SessionsActive.Dec()
	}
	s.audit(audit.ActionSessionCompleted, actorID, sessionID.String(), map[string]any{
		"duration": session.Duration,
	})
	return session, nil
}

// Interrupt pauses an in-progress session with a reason.
func (s *Service) Interrupt(ctx context.Context, sessionID domain.SessionID, actorID, reason string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.Interrupt(reason, s.clock())
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionsActive.Dec()
	}
	s.audit(audit.ActionSessionInterrupted, actorID, sessionID.String(), map[string]any{"reason": reason})
	return session, nil
}

// Resume returns an interrupted session to execution.
func (s *Service) Resume(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.Resume(s.clock())
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}
	s.audit(audit.ActionSessionResumed, actorID, sessionID.String(), nil)
	return session, nil
}

// Cancel abandons a scheduled or interrupted session.
func (s *Service) Cancel(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.UpdateStatus(domain.SessionCancelled, s.clock())
	})
	if err != nil {
		return nil, err
	}
	s.audit(audit.ActionSessionCancelled, actorID, sessionID.String(), nil)
	return session, nil
}

// Verify records a supervisor review over a completed session. The session
// moves to verified when every check passed, rejected otherwise.
func (s *Service) Verify(ctx context.Context, sessionID domain.SessionID, verifiedBy domain.UserID, checks []inspection.QualityCheck, notes string) (*inspection.TestSession, error) {
	var verification inspection.Verification
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		now := s.clock()
		if session.Status != domain.SessionCompleted {
			return dErrors.Newf(dErrors.CodeTransitionViolation,
				"cannot verify session in status %s", session.Status)
		}
		verification = session.AddVerification(verifiedBy, checks, notes, now)
		next := domain.SessionVerified
		if !verification.AllChecksPassed {
			next = domain.SessionRejected
		}
		return session.UpdateStatus(next, now)
	})
	if err != nil {
		return nil, err
	}
	action := audit.ActionSessionVerified
	if !verification.AllChecksPassed {
		action = audit.ActionSessionRejected
	}
	s.audit(action, verifiedBy.String(), sessionID.String(), map[string]any{
		"allChecksPassed": verification.AllChecksPassed,
	})
	return session, nil
}

// Reject marks a completed session rejected without a passing review.
func (s *Service) Reject(ctx context.Context, sessionID domain.SessionID, actorID string) (*inspection.TestSession, error) {
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.UpdateStatus(domain.SessionRejected, s.clock())
	})
	if err != nil {
		return nil, err
	}
	s.audit(audit.ActionSessionRejected, actorID, sessionID.String(), nil)
	return session, nil
}

// RecordMeasurement appends one reading to an in-progress session.
func (s *Service) RecordMeasurement(ctx context.Context, sessionID domain.SessionID, testType string, m inspection.Measurement) (*inspection.TestSession, error) {
	if testType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "test type is required")
	}
	if m.Parameter == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "measurement parameter is required")
	}
	if m.Status == "" {
		m.Status = domain.MeasurementPending
	}
	if !m.Status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown measurement status %q", m.Status)
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = s.clock()
	}
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.AddMeasurement(testType, m)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.MeasurementsRecorded.Inc()
	}
	return session, nil
}

// RecordQualityCheck evaluates and appends one check to an in-progress
// session.
func (s *Service) RecordQualityCheck(ctx context.Context, sessionID domain.SessionID, check inspection.QualityCheck) (*inspection.TestSession, error) {
	if !check.Kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown check kind %q", check.Kind)
	}
	return s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		return session.AddQualityCheck(check)
	})
}

// ReportIssue stamps and appends an issue without touching the status.
func (s *Service) ReportIssue(ctx context.Context, sessionID domain.SessionID, reportedBy domain.UserID, description string) (*inspection.TestSession, error) {
	if description == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "issue description is required")
	}
	session, err := s.mutate(ctx, sessionID, func(session *inspection.TestSession) error {
		session.AddIssue(description, reportedBy, s.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit(audit.ActionIssueReported, reportedBy.String(), sessionID.String(), map[string]any{
		"description": description,
	})
	return session, nil
}

// Trend classifies the values of one parameter recorded under a test type.
func (s *Service) Trend(ctx context.Context, sessionID domain.SessionID, testType, parameter string) (inspection.Trend, error) {
	session, _, err := s.load(ctx, sessionID)
	if err != nil {
		return inspection.Trend{}, err
	}
	var values []float64
	for _, m := range session.Measurements[testType] {
		if parameter == "" || m.Parameter == parameter {
			values = append(values, m.Value)
		}
	}
	return inspection.ClassifyTrend(values), nil
}

// load fetches one session with its store version.
func (s *Service) load(ctx context.Context, sessionID domain.SessionID) (*inspection.TestSession, int64, error) {
	var session inspection.TestSession
	version, err := s.store.Get(ctx, domain.CollectionSessions, sessionID.String(), &session)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.Newf(dErrors.CodeNotFound, "session %s not found", sessionID)
		}
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return &session, version, nil
}

// mutate runs one load-modify-store cycle under the store's version check.
// Concurrent writers on the same session are excluded at the persistence
// layer; a lost race surfaces as a conflict rather than a silent overwrite.
func (s *Service) mutate(ctx context.Context, sessionID domain.SessionID, apply func(*inspection.TestSession) error) (*inspection.TestSession, error) {
	session, version, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := apply(session); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeTransitionViolation) {
			s.metrics.TransitionViolations.Inc()
		}
		return nil, err
	}
	if err := s.store.Replace(ctx, domain.CollectionSessions, sessionID.String(), session, version); err != nil {
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, dErrors.New(dErrors.CodeConflict, "session was modified concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	return session, nil
}

func (s *Service) audit(action audit.Action, actorID, entityID string, detail map[string]any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(action, actorID, entityKind, entityID, detail)
}

func (s *Service) countValidationFailure() {
	if s.metrics != nil {
		s.metrics.IncrementValidationFailures(domain.CollectionSessions.String())
	}
}

func stringField(doc map[string]any, field string) string {
	s, _ := doc[field].(string)
	return s
}

func timeField(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return at, true
	default:
		return time.Time{}, false
	}
}
