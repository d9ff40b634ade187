package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

type UpdateSuite struct {
	suite.Suite
	validator *Validator
	ctx       context.Context
}

func (s *UpdateSuite) SetupTest() {
	s.validator = New(WithClock(func() time.Time { return testNow }))
	s.ctx = context.Background()
}

func TestUpdateSuite(t *testing.T) {
	suite.Run(t, new(UpdateSuite))
}

func (s *UpdateSuite) validate(collection domain.Collection, ops map[string]any) error {
	return s.validator.ValidateUpdate(s.ctx, collection, map[string]any{"id": "doc-1"}, ops)
}

func (s *UpdateSuite) TestUnknownOperator() {
	err := s.validate(domain.CollectionSessions, map[string]any{
		"$replaceRoot": map[string]any{},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidationFailed))
	s.Contains(err.Error(), "invalid update operator: $replaceRoot")
}

func (s *UpdateSuite) TestSet() {
	s.Run("valid partial document passes", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$set": map[string]any{"currentStep": 3},
		})
		s.NoError(err)
	})

	s.Run("set runs the transition rule", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$set": map[string]any{
				"status":        "completed",
				"currentStatus": "scheduled",
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTransitionViolation))
	})

	s.Run("non-object payload rejected", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{"$set": "status"})
		s.Require().Error(err)
		s.Contains(err.Error(), "$set payload must be an object")
	})
}

func (s *UpdateSuite) TestArrayAppends() {
	s.Run("scalar element passes through", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$push": map[string]any{"issues": "brake drift observed"},
		})
		s.NoError(err)
	})

	s.Run("map element validated as update document", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$push": map[string]any{
				"qualityChecks": map[string]any{"currentStep": "three"},
			},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "invalid type for field currentStep")
	})

	s.Run("each wrapper validates every element", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$addToSet": map[string]any{
				"issues": map[string]any{
					"$each": []any{
						map[string]any{"notes": "ok"},
						map[string]any{"notes": 7},
					},
				},
			},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "invalid type for field notes")
	})

	s.Run("malformed each rejected", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$push": map[string]any{
				"issues": map[string]any{"$each": "not-a-list"},
			},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "$each for issues must be an array")
	})
}

func (s *UpdateSuite) TestIncrement() {
	s.Run("numeric delta passes", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$inc": map[string]any{"currentStep": 1},
		})
		s.NoError(err)
	})

	s.Run("non-numeric delta rejected", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$inc": map[string]any{"currentStep": "one"},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "increment for field currentStep must be numeric")
	})
}

func (s *UpdateSuite) TestUnsetAndRename() {
	s.Run("unsetting a required field rejected", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$unset": map[string]any{"sessionCode": ""},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "cannot unset required field: sessionCode")
	})

	s.Run("unsetting an optional field passes", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$unset": map[string]any{"notes": ""},
		})
		s.NoError(err)
	})

	s.Run("renaming into a required field rejected", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$rename": map[string]any{"notes": "status"},
		})
		s.Require().Error(err)
		s.Contains(err.Error(), "cannot rename required field")
	})

	s.Run("renaming an optional field passes", func() {
		err := s.validate(domain.CollectionSessions, map[string]any{
			"$rename": map[string]any{"notes": "remarks"},
		})
		s.NoError(err)
	})
}
