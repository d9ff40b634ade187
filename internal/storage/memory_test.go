package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"atsnet/pkg/domain"
	"atsnet/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestInsertAndGet() {
	s.Run("insert starts at version 1", func() {
		doc := map[string]any{"registrationNumber": "KA01AB1234"}
		s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionVehicles, "veh-1", doc))

		var out map[string]any
		version, err := s.store.Get(s.ctx, domain.CollectionVehicles, "veh-1", &out)
		s.Require().NoError(err)
		s.Equal(int64(1), version)
		s.Equal("KA01AB1234", out["registrationNumber"])
	})

	s.Run("duplicate id conflicts", func() {
		s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionVehicles, "veh-2", map[string]any{}))
		err := s.store.Insert(s.ctx, domain.CollectionVehicles, "veh-2", map[string]any{})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		var out map[string]any
		_, err := s.store.Get(s.ctx, domain.CollectionVehicles, "missing", &out)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("collections are isolated", func() {
		s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionUsers, "shared-id", map[string]any{}))
		var out map[string]any
		_, err := s.store.Get(s.ctx, domain.CollectionCenters, "shared-id", &out)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestReplace() {
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionSessions, "ts-1", map[string]any{"status": "scheduled"}))

	s.Run("matching version replaces and bumps", func() {
		s.Require().NoError(s.store.Replace(s.ctx, domain.CollectionSessions, "ts-1",
			map[string]any{"status": "in_progress"}, 1))

		var out map[string]any
		version, err := s.store.Get(s.ctx, domain.CollectionSessions, "ts-1", &out)
		s.Require().NoError(err)
		s.Equal(int64(2), version)
		s.Equal("in_progress", out["status"])
	})

	s.Run("stale version mismatches", func() {
		err := s.store.Replace(s.ctx, domain.CollectionSessions, "ts-1", map[string]any{}, 1)
		s.Require().ErrorIs(err, sentinel.ErrVersionMismatch)
	})

	s.Run("unknown id is not found", func() {
		err := s.store.Replace(s.ctx, domain.CollectionSessions, "missing", map[string]any{}, 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestFindByField() {
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionUsers, "u-1",
		map[string]any{"email": "a@ats.example.com"}))
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionUsers, "u-2",
		map[string]any{"email": "b@ats.example.com"}))

	var out map[string]any
	version, err := s.store.FindByField(s.ctx, domain.CollectionUsers, "email", "b@ats.example.com", &out)
	s.Require().NoError(err)
	s.Equal(int64(1), version)
	s.Equal("b@ats.example.com", out["email"])

	_, err = s.store.FindByField(s.ctx, domain.CollectionUsers, "email", "c@ats.example.com", &out)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionVehicles, "veh-1", map[string]any{}))
	s.Require().NoError(s.store.Delete(s.ctx, domain.CollectionVehicles, "veh-1"))
	s.Require().ErrorIs(s.store.Delete(s.ctx, domain.CollectionVehicles, "veh-1"), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindByID() {
	s.Require().NoError(s.store.Insert(s.ctx, domain.CollectionCenters, "c-1",
		map[string]any{"centerCode": "ATS123456"}))

	doc, err := s.store.FindByID(s.ctx, domain.CollectionCenters, "c-1")
	s.Require().NoError(err)
	s.Equal("ATS123456", doc["centerCode"])

	_, err = s.store.FindByID(s.ctx, domain.CollectionCenters, "c-2")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
