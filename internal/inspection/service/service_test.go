package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atsnet/internal/audit"
	"atsnet/internal/inspection"
	"atsnet/internal/storage"
	"atsnet/internal/validation"
	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

var serviceNow = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	store     *storage.Memory
	publisher *audit.Publisher
	service   *Service
	ctx       context.Context

	vehicleID  domain.VehicleID
	centerID   domain.CenterID
	operatorID domain.UserID
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storage.NewMemory()
	s.publisher = audit.NewPublisher(16)

	clock := func() time.Time { return serviceNow }
	validator := validation.New(validation.WithClock(clock))
	resolver := validation.NewResolver(s.store)

	svc, err := New(s.store, validator, resolver,
		WithClock(clock),
		WithAuditPublisher(s.publisher),
	)
	s.Require().NoError(err)
	s.service = svc

	// Referenced entities must exist for scheduling to pass.
	s.vehicleID = domain.NewVehicleID()
	s.centerID = domain.NewCenterID()
	s.operatorID = domain.NewUserID()
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionVehicles, s.vehicleID.String(),
		map[string]any{"registrationNumber": "KA01AB1234"}))
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionCenters, s.centerID.String(),
		map[string]any{"centerCode": "ATS123456"}))
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionUsers, s.operatorID.String(),
		map[string]any{"email": "operator@ats.example.com"}))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) scheduleDoc() map[string]any {
	return map[string]any{
		"vehicleId":     s.vehicleID.String(),
		"centerId":      s.centerID.String(),
		"operatorId":    s.operatorID.String(),
		"scheduledTime": serviceNow.Add(time.Hour).Format(time.RFC3339),
	}
}

func (s *ServiceSuite) schedule() *inspection.TestSession {
	session, err := s.service.Schedule(s.ctx, s.operatorID.String(), s.scheduleDoc())
	s.Require().NoError(err)
	return session
}

func (s *ServiceSuite) TestSchedule() {
	s.Run("generates a session code when absent", func() {
		session := s.schedule()
		s.Equal(domain.SessionScheduled, session.Status)
		s.Regexp(`^TS\d{12}$`, session.SessionCode.String())
		s.Equal(s.vehicleID, session.VehicleID)

		stored, err := s.service.Get(s.ctx, session.ID)
		s.Require().NoError(err)
		s.Equal(session.SessionCode, stored.SessionCode)
	})

	s.Run("keeps a caller-supplied code", func() {
		doc := s.scheduleDoc()
		doc["sessionCode"] = "TS999888777666"
		session, err := s.service.Schedule(s.ctx, s.operatorID.String(), doc)
		s.Require().NoError(err)
		s.Equal(domain.SessionCode("TS999888777666"), session.SessionCode)
	})

	s.Run("rejects a duplicate code", func() {
		doc := s.scheduleDoc()
		doc["sessionCode"] = "TS111222333444"
		_, err := s.service.Schedule(s.ctx, s.operatorID.String(), doc)
		s.Require().NoError(err)

		doc = s.scheduleDoc()
		doc["sessionCode"] = "TS111222333444"
		_, err = s.service.Schedule(s.ctx, s.operatorID.String(), doc)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects unresolved references", func() {
		doc := s.scheduleDoc()
		doc["vehicleId"] = domain.NewVehicleID().String()
		_, err := s.service.Schedule(s.ctx, s.operatorID.String(), doc)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Contains(err.Error(), "vehicleId")
	})

	s.Run("rejects a past schedule", func() {
		doc := s.scheduleDoc()
		doc["scheduledTime"] = serviceNow.Add(-time.Hour).Format(time.RFC3339)
		_, err := s.service.Schedule(s.ctx, s.operatorID.String(), doc)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	s.Run("publishes an audit event", func() {
		drained := drain(s.publisher)
		session := s.schedule()

		events := drain(s.publisher)
		s.Require().NotEmpty(events, "expected a scheduled event, already drained %d", len(drained))
		last := events[len(events)-1]
		s.Equal(audit.ActionSessionScheduled, last.Action)
		s.Equal(session.ID.String(), last.EntityID)
	})
}

func (s *ServiceSuite) TestLifecycle() {
	session := s.schedule()

	started, err := s.service.Start(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)
	s.Equal(domain.SessionInProgress, started.Status)

	_, err = s.service.RecordMeasurement(s.ctx, session.ID, "speedTest", inspection.Measurement{
		Parameter: "speed", Value: 41.2, Unit: "km/h",
	})
	s.Require().NoError(err)

	_, err = s.service.RecordQualityCheck(s.ctx, session.ID, inspection.QualityCheck{
		Kind: domain.CheckMaximum, Threshold: 100, Observed: 80,
	})
	s.Require().NoError(err)

	completed, err := s.service.Complete(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)
	s.Equal(domain.SessionCompleted, completed.Status)
	s.Require().NotNil(completed.Duration)
	s.Equal(int64(0), *completed.Duration)

	verified, err := s.service.Verify(s.ctx, session.ID, s.operatorID, []inspection.QualityCheck{
		{Kind: domain.CheckMaximum, Threshold: 100, Observed: 80},
	}, "all good")
	s.Require().NoError(err)
	s.Equal(domain.SessionVerified, verified.Status)
	s.Require().Len(verified.Verifications, 1)
	s.True(verified.Verifications[0].AllChecksPassed)
}

func (s *ServiceSuite) TestVerifyFailingChecksRejects() {
	session := s.schedule()
	_, err := s.service.Start(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)
	_, err = s.service.Complete(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)

	rejected, err := s.service.Verify(s.ctx, session.ID, s.operatorID, []inspection.QualityCheck{
		{Kind: domain.CheckMaximum, Threshold: 100, Observed: 120},
	}, "over limit")
	s.Require().NoError(err)
	s.Equal(domain.SessionRejected, rejected.Status)
}

func (s *ServiceSuite) TestVerifyRequiresCompleted() {
	session := s.schedule()
	_, err := s.service.Verify(s.ctx, session.ID, s.operatorID, []inspection.QualityCheck{
		{Kind: domain.CheckMaximum, Threshold: 100, Observed: 80},
	}, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
}

func (s *ServiceSuite) TestInterruptAndResume() {
	session := s.schedule()
	_, err := s.service.Start(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)

	interrupted, err := s.service.Interrupt(s.ctx, session.ID, s.operatorID.String(), "power failure")
	s.Require().NoError(err)
	s.Equal(domain.SessionInterrupted, interrupted.Status)
	s.Require().Len(interrupted.Interruptions, 1)

	resumed, err := s.service.Resume(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)
	s.Equal(domain.SessionInProgress, resumed.Status)
}

func (s *ServiceSuite) TestCancel() {
	s.Run("scheduled sessions cancel", func() {
		session := s.schedule()
		cancelled, err := s.service.Cancel(s.ctx, session.ID, s.operatorID.String())
		s.Require().NoError(err)
		s.Equal(domain.SessionCancelled, cancelled.Status)
	})

	s.Run("in-progress sessions do not", func() {
		session := s.schedule()
		_, err := s.service.Start(s.ctx, session.ID, s.operatorID.String())
		s.Require().NoError(err)
		_, err = s.service.Cancel(s.ctx, session.ID, s.operatorID.String())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
	})
}

func (s *ServiceSuite) TestMeasurementOutsideInProgress() {
	session := s.schedule()
	_, err := s.service.RecordMeasurement(s.ctx, session.ID, "speedTest", inspection.Measurement{
		Parameter: "speed", Value: 40,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestReportIssue() {
	session := s.schedule()
	updated, err := s.service.ReportIssue(s.ctx, session.ID, s.operatorID, "brake lamp cracked")
	s.Require().NoError(err)
	s.Equal(domain.SessionScheduled, updated.Status, "issues never change the status")
	s.Require().Len(updated.Issues, 1)

	_, err = s.service.ReportIssue(s.ctx, session.ID, s.operatorID, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestTrend() {
	session := s.schedule()
	_, err := s.service.Start(s.ctx, session.ID, s.operatorID.String())
	s.Require().NoError(err)

	for _, v := range []float64{40, 42, 44, 46} {
		_, err = s.service.RecordMeasurement(s.ctx, session.ID, "speedTest", inspection.Measurement{
			Parameter: "speed", Value: v,
		})
		s.Require().NoError(err)
	}
	_, err = s.service.RecordMeasurement(s.ctx, session.ID, "speedTest", inspection.Measurement{
		Parameter: "noise", Value: 70,
	})
	s.Require().NoError(err)

	trend, err := s.service.Trend(s.ctx, session.ID, "speedTest", "speed")
	s.Require().NoError(err)
	s.True(trend.Increasing)
	s.InDelta(2.0, trend.AvgDiff, 1e-9)

	trend, err = s.service.Trend(s.ctx, session.ID, "speedTest", "noise")
	s.Require().NoError(err)
	s.Equal(inspection.Trend{}, trend, "single value yields no classification")
}

func (s *ServiceSuite) TestGetUnknownSession() {
	_, err := s.service.Get(s.ctx, domain.NewSessionID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// drain reads every event currently buffered by the publisher.
func drain(p *audit.Publisher) []audit.Event {
	var events []audit.Event
	for {
		select {
		case e := <-p.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}
