// Package inspection owns the lifecycle of one test session: the status
// state machine, timing fields, measurement and quality-check recording, and
// the append-only interruption and issue logs.
//
// A TestSession is mutated by exactly one writer at a time; callers enforce
// single-writer discipline (the storage layer's version check backs this up).
package inspection

import (
	"time"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

// Measurement is one recorded parameter reading inside a test.
type Measurement struct {
	Parameter   string                   `json:"parameter"`
	Value       float64                  `json:"value"`
	Unit        string                   `json:"unit"`
	RecordedAt  time.Time                `json:"recordedAt"`
	EquipmentID string                   `json:"equipmentId"`
	OperatorID  domain.UserID            `json:"operatorId"`
	Status      domain.MeasurementStatus `json:"status"`
}

// QualityCheck evaluates one observed value against a threshold.
type QualityCheck struct {
	Kind      domain.CheckKind `json:"kind"`
	Threshold float64          `json:"threshold"`
	Observed  float64          `json:"observed"`
	Passed    bool             `json:"passed"`
}

// Verification is a supervisor's review over a set of quality checks.
type Verification struct {
	VerifiedBy      domain.UserID  `json:"verifiedBy"`
	VerifiedAt      time.Time      `json:"verifiedAt"`
	Checks          []QualityCheck `json:"checks"`
	AllChecksPassed bool           `json:"allChecksPassed"`
	Notes           string         `json:"notes,omitempty"`
}

// Interruption records one pause in an in-progress session.
type Interruption struct {
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Issue records one problem observed during a session.
type Issue struct {
	Description string        `json:"description"`
	ReportedBy  domain.UserID `json:"reportedBy"`
	At          time.Time     `json:"at"`
}

// StatusChange records one transition in the session's history log.
type StatusChange struct {
	From domain.SessionStatus `json:"from"`
	To   domain.SessionStatus `json:"to"`
	At   time.Time            `json:"at"`
}

// TestSession is one scheduled inspection run of a single vehicle.
//
// Invariants:
//   - Status moves only along the transition table in pkg/domain.
//   - StartTime is set exactly once, on scheduled -> in_progress.
//   - EndTime and Duration are set exactly once, on in_progress -> completed;
//     Duration = EndTime - StartTime in whole seconds, never negative.
//   - Measurements and quality checks append only while in_progress.
//   - All log fields append oldest-first and are owned by this type.
type TestSession struct {
	ID           domain.SessionID   `json:"id"`
	SessionCode  domain.SessionCode `json:"sessionCode"`
	VehicleID    domain.VehicleID   `json:"vehicleId"`
	CenterID     domain.CenterID    `json:"centerId"`
	OperatorID   domain.UserID      `json:"operatorId"`
	SupervisorID *domain.UserID     `json:"supervisorId,omitempty"`

	Status      domain.SessionStatus `json:"status"`
	CurrentStep int                  `json:"currentStep"`

	ScheduledTime time.Time  `json:"scheduledTime"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	// Duration is whole seconds between start and end.
	Duration *int64 `json:"duration,omitempty"`

	// Measurements are keyed by test type; each sequence is ordered by
	// recording time, oldest first.
	Measurements  map[string][]Measurement `json:"measurements"`
	QualityChecks []QualityCheck           `json:"qualityChecks"`
	Verifications []Verification           `json:"verifications"`
	Interruptions []Interruption           `json:"interruptions"`
	Issues        []Issue                  `json:"issues"`
	StatusHistory []StatusChange           `json:"statusHistory"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession constructs a scheduled session. Callers validate the source
// document before construction.
func NewSession(id domain.SessionID, code domain.SessionCode, vehicleID domain.VehicleID, centerID domain.CenterID, operatorID domain.UserID, scheduledAt, now time.Time) *TestSession {
	return &TestSession{
		ID:            id,
		SessionCode:   code,
		VehicleID:     vehicleID,
		CenterID:      centerID,
		OperatorID:    operatorID,
		Status:        domain.SessionScheduled,
		ScheduledTime: scheduledAt,
		Measurements:  make(map[string][]Measurement),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateStatus transitions the session to next if the transition table allows
// it, recording the change in the history log. Any other move fails with a
// transition violation naming both states.
func (s *TestSession) UpdateStatus(next domain.SessionStatus, now time.Time) error {
	if !next.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown session status %q", next)
	}
	if !s.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeTransitionViolation,
			"illegal status transition from %s to %s", s.Status, next)
	}
	s.StatusHistory = append(s.StatusHistory, StatusChange{From: s.Status, To: next, At: now})
	s.Status = next
	s.UpdatedAt = now
	return nil
}

// Start begins execution: requires scheduled, stamps StartTime, then moves to
// in_progress.
func (s *TestSession) Start(now time.Time) error {
	if s.Status != domain.SessionScheduled {
		return dErrors.Newf(dErrors.CodeTransitionViolation,
			"cannot start test from status %s", s.Status)
	}
	start := now
	if err := s.UpdateStatus(domain.SessionInProgress, now); err != nil {
		return err
	}
	s.StartTime = &start
	return nil
}

// End completes execution: requires in_progress, stamps EndTime, computes
// Duration in whole seconds, then moves to completed.
func (s *TestSession) End(now time.Time) error {
	if s.Status != domain.SessionInProgress {
		return dErrors.Newf(dErrors.CodeTransitionViolation,
			"cannot end test from status %s", s.Status)
	}
	if s.StartTime == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "session has no start time")
	}
	end := now
	duration := int64(end.Sub(*s.StartTime) / time.Second)
	if duration < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "end time precedes start time")
	}
	if err := s.UpdateStatus(domain.SessionCompleted, now); err != nil {
		return err
	}
	s.EndTime = &end
	s.Duration = &duration
	return nil
}

// Interrupt pauses an in-progress session, logging the reason.
func (s *TestSession) Interrupt(reason string, now time.Time) error {
	if err := s.UpdateStatus(domain.SessionInterrupted, now); err != nil {
		return err
	}
	s.Interruptions = append(s.Interruptions, Interruption{Reason: reason, At: now})
	return nil
}

// Resume returns an interrupted session to in_progress. StartTime is not
// touched; the original start stands.
func (s *TestSession) Resume(now time.Time) error {
	if s.Status != domain.SessionInterrupted {
		return dErrors.Newf(dErrors.CodeTransitionViolation,
			"cannot resume test from status %s", s.Status)
	}
	return s.UpdateStatus(domain.SessionInProgress, now)
}

// AddIssue stamps the issue with the current time and appends it to the
// issue log. The status is not altered.
func (s *TestSession) AddIssue(description string, reportedBy domain.UserID, now time.Time) {
	s.Issues = append(s.Issues, Issue{Description: description, ReportedBy: reportedBy, At: now})
	s.UpdatedAt = now
}

// AddMeasurement appends a reading under its test type. Only an in-progress
// session accepts measurements.
func (s *TestSession) AddMeasurement(testType string, m Measurement) error {
	if s.Status != domain.SessionInProgress {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot record measurements while session is %s", s.Status)
	}
	if s.Measurements == nil {
		s.Measurements = make(map[string][]Measurement)
	}
	s.Measurements[testType] = append(s.Measurements[testType], m)
	return nil
}

// AddQualityCheck evaluates and appends a check. Only an in-progress session
// accepts quality checks.
func (s *TestSession) AddQualityCheck(check QualityCheck) error {
	if s.Status != domain.SessionInProgress {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot record quality checks while session is %s", s.Status)
	}
	check.Passed = Evaluate(check)
	s.QualityChecks = append(s.QualityChecks, check)
	return nil
}

// AddVerification appends a supervisor review over the given checks, deriving
// AllChecksPassed. Verification happens after completion, so the in_progress
// guard does not apply.
func (s *TestSession) AddVerification(verifiedBy domain.UserID, checks []QualityCheck, notes string, now time.Time) Verification {
	evaluated := make([]QualityCheck, len(checks))
	for i, check := range checks {
		check.Passed = Evaluate(check)
		evaluated[i] = check
	}
	v := Verification{
		VerifiedBy:      verifiedBy,
		VerifiedAt:      now,
		Checks:          evaluated,
		AllChecksPassed: AllPassed(evaluated),
		Notes:           notes,
	}
	s.Verifications = append(s.Verifications, v)
	return v
}
