package inspection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

var sessionNow = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

type SessionSuite struct {
	suite.Suite
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func newTestSession() *TestSession {
	return NewSession(
		domain.NewSessionID(),
		domain.SessionCode("TS123456789012"),
		domain.NewVehicleID(),
		domain.NewCenterID(),
		domain.NewUserID(),
		sessionNow.Add(time.Hour),
		sessionNow,
	)
}

func (s *SessionSuite) TestTransitionMatrix() {
	cases := []struct {
		from    domain.SessionStatus
		to      domain.SessionStatus
		allowed bool
	}{
		{domain.SessionScheduled, domain.SessionInProgress, true},
		{domain.SessionScheduled, domain.SessionCancelled, true},
		{domain.SessionScheduled, domain.SessionCompleted, false},
		{domain.SessionScheduled, domain.SessionVerified, false},
		{domain.SessionInProgress, domain.SessionCompleted, true},
		{domain.SessionInProgress, domain.SessionInterrupted, true},
		{domain.SessionInProgress, domain.SessionCancelled, false},
		{domain.SessionInterrupted, domain.SessionInProgress, true},
		{domain.SessionInterrupted, domain.SessionCancelled, true},
		{domain.SessionInterrupted, domain.SessionCompleted, false},
		{domain.SessionCompleted, domain.SessionVerified, true},
		{domain.SessionCompleted, domain.SessionRejected, true},
		{domain.SessionCompleted, domain.SessionInProgress, false},
		{domain.SessionVerified, domain.SessionRejected, false},
		{domain.SessionRejected, domain.SessionInProgress, false},
		{domain.SessionCancelled, domain.SessionScheduled, false},
	}

	for _, tc := range cases {
		session := newTestSession()
		session.Status = tc.from
		err := session.UpdateStatus(tc.to, sessionNow)
		if tc.allowed {
			s.NoError(err, "%s -> %s should be allowed", tc.from, tc.to)
			s.Equal(tc.to, session.Status)
		} else {
			s.Require().Error(err, "%s -> %s should be rejected", tc.from, tc.to)
			s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
			s.Contains(err.Error(), tc.from.String())
			s.Contains(err.Error(), tc.to.String())
			s.Equal(tc.from, session.Status, "status must not move on a rejected transition")
		}
	}
}

func (s *SessionSuite) TestStatusHistory() {
	session := newTestSession()
	s.Require().NoError(session.UpdateStatus(domain.SessionInProgress, sessionNow))
	s.Require().NoError(session.UpdateStatus(domain.SessionInterrupted, sessionNow.Add(time.Minute)))

	s.Require().Len(session.StatusHistory, 2)
	s.Equal(domain.SessionScheduled, session.StatusHistory[0].From)
	s.Equal(domain.SessionInProgress, session.StatusHistory[0].To)
	s.Equal(domain.SessionInProgress, session.StatusHistory[1].From)
	s.Equal(domain.SessionInterrupted, session.StatusHistory[1].To)
}

func (s *SessionSuite) TestStart() {
	s.Run("stamps start time once", func() {
		session := newTestSession()
		s.Require().NoError(session.Start(sessionNow))
		s.Equal(domain.SessionInProgress, session.Status)
		s.Require().NotNil(session.StartTime)
		s.Equal(sessionNow, *session.StartTime)
	})

	s.Run("rejects non-scheduled states", func() {
		session := newTestSession()
		s.Require().NoError(session.Start(sessionNow))
		err := session.Start(sessionNow)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
	})
}

func (s *SessionSuite) TestEnd() {
	s.Run("computes whole-second duration", func() {
		session := newTestSession()
		s.Require().NoError(session.Start(sessionNow))
		s.Require().NoError(session.End(sessionNow.Add(42*time.Second + 900*time.Millisecond)))

		s.Equal(domain.SessionCompleted, session.Status)
		s.Require().NotNil(session.Duration)
		s.Equal(int64(42), *session.Duration)
	})

	s.Run("rejects end before start", func() {
		session := newTestSession()
		s.Require().NoError(session.Start(sessionNow))
		err := session.End(sessionNow.Add(-time.Second))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects end without start", func() {
		session := newTestSession()
		err := session.End(sessionNow)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
	})
}

func (s *SessionSuite) TestInterruptResume() {
	session := newTestSession()
	s.Require().NoError(session.Start(sessionNow))
	s.Require().NoError(session.Interrupt("power failure", sessionNow.Add(time.Minute)))

	s.Equal(domain.SessionInterrupted, session.Status)
	s.Require().Len(session.Interruptions, 1)
	s.Equal("power failure", session.Interruptions[0].Reason)

	s.Require().NoError(session.Resume(sessionNow.Add(2 * time.Minute)))
	s.Equal(domain.SessionInProgress, session.Status)
	s.Require().NotNil(session.StartTime)
	s.Equal(sessionNow, *session.StartTime, "resume must not touch the original start")
}

func (s *SessionSuite) TestMeasurementGuards() {
	session := newTestSession()
	m := Measurement{Parameter: "speed", Value: 41.2, Unit: "km/h", RecordedAt: sessionNow}

	err := session.AddMeasurement("speedTest", m)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	s.Require().NoError(session.Start(sessionNow))
	s.Require().NoError(session.AddMeasurement("speedTest", m))
	s.Require().NoError(session.AddMeasurement("speedTest", Measurement{Parameter: "speed", Value: 42.0}))
	s.Len(session.Measurements["speedTest"], 2)
	s.Equal(41.2, session.Measurements["speedTest"][0].Value, "measurements keep recording order")
}

func (s *SessionSuite) TestQualityCheckGuards() {
	session := newTestSession()
	check := QualityCheck{Kind: domain.CheckMaximum, Threshold: 100, Observed: 90}

	err := session.AddQualityCheck(check)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	s.Require().NoError(session.Start(sessionNow))
	s.Require().NoError(session.AddQualityCheck(check))
	s.Require().Len(session.QualityChecks, 1)
	s.True(session.QualityChecks[0].Passed, "stored check carries its evaluation")
}

func (s *SessionSuite) TestIssuesIgnoreStatus() {
	session := newTestSession()
	reporter := domain.NewUserID()

	session.AddIssue("worn tyre", reporter, sessionNow)
	s.Equal(domain.SessionScheduled, session.Status)
	s.Require().Len(session.Issues, 1)
	s.Equal(reporter, session.Issues[0].ReportedBy)
	s.Equal(sessionNow, session.Issues[0].At)
}

func (s *SessionSuite) TestVerification() {
	s.Run("all passing checks", func() {
		session := newTestSession()
		v := session.AddVerification(domain.NewUserID(), []QualityCheck{
			{Kind: domain.CheckMaximum, Threshold: 100, Observed: 100},
			{Kind: domain.CheckMinimum, Threshold: 10, Observed: 10},
		}, "clean run", sessionNow)

		s.True(v.AllChecksPassed)
		s.True(v.Checks[0].Passed)
		s.True(v.Checks[1].Passed)
		s.Len(session.Verifications, 1)
	})

	s.Run("one failing check fails the verification", func() {
		session := newTestSession()
		v := session.AddVerification(domain.NewUserID(), []QualityCheck{
			{Kind: domain.CheckMaximum, Threshold: 100, Observed: 101},
		}, "", sessionNow)
		s.False(v.AllChecksPassed)
	})
}
