package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) append(entityType string, entityID int64, action string) *Entry {
	e := &Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    Detail(map[string]string{"source": "test"}),
	}
	s.Require().NoError(s.store.Append(s.ctx, e))
	return e
}

func (s *MemoryStoreSuite) TestAppendAssignsIDAndTimestamp() {
	e := s.append(EntityInvoice, 1, ActionCreated)
	s.NotZero(e.ID)
	s.False(e.CreatedAt.IsZero())
}

func (s *MemoryStoreSuite) TestListByEntityFilters() {
	s.append(EntityInvoice, 1, ActionCreated)
	s.append(EntityInvoice, 1, ActionSubmitted)
	s.append(EntityInvoice, 2, ActionCreated)
	s.append(EntityPayment, 1, ActionProcessed)

	entries, err := s.store.ListByEntity(s.ctx, EntityInvoice, 1)
	s.Require().NoError(err)
	s.Len(entries, 2)
	s.Equal(ActionCreated, entries[0].Action)
	s.Equal(ActionSubmitted, entries[1].Action)
}

func (s *MemoryStoreSuite) TestOutboxDrain() {
	first := s.append(EntityInvoice, 1, ActionCreated)
	second := s.append(EntityInvoice, 1, ActionSubmitted)

	pending, err := s.store.Unpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 2)

	s.Require().NoError(s.store.MarkPublished(s.ctx, []int64{first.ID}, time.Now()))

	pending, err = s.store.Unpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)
}

func (s *MemoryStoreSuite) TestUnpublishedHonorsLimit() {
	for i := 0; i < 5; i++ {
		s.append(EntityInvoice, int64(i), ActionCreated)
	}
	pending, err := s.store.Unpublished(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(pending, 3)
}
