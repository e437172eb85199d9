package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"procurement/internal/payment/models"
	"procurement/pkg/platform/sentinel"
)

type PaymentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *PaymentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestPaymentStoreSuite(t *testing.T) {
	suite.Run(t, new(PaymentStoreSuite))
}

func (s *PaymentStoreSuite) newPayment(invoiceID int64, status models.Status) *models.Payment {
	now := time.Now()
	p := &models.Payment{
		PaymentNumber: models.NewPaymentNumber(now),
		InvoiceID:     invoiceID,
		Amount:        decimal.RequireFromString("1500.00"),
		Method:        models.MethodACH,
		Status:        status,
		ProcessedAt:   now,
	}
	if status == models.StatusCompleted {
		p.ConfirmationNumber = models.NewConfirmationNumber()
	}
	return p
}

func (s *PaymentStoreSuite) TestCreateAndFind() {
	p := s.newPayment(1, models.StatusCompleted)
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.NotZero(p.ID)

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.PaymentNumber, found.PaymentNumber)
	s.Equal(models.StatusCompleted, found.Status)
}

func (s *PaymentStoreSuite) TestSecondCompletedPaymentConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, s.newPayment(1, models.StatusCompleted)))

	err := s.store.Create(s.ctx, s.newPayment(1, models.StatusCompleted))
	s.ErrorIs(err, sentinel.ErrConflict)

	// A completed payment for a different invoice is unaffected.
	s.NoError(s.store.Create(s.ctx, s.newPayment(2, models.StatusCompleted)))
}

func (s *PaymentStoreSuite) TestFailedAttemptsAccumulate() {
	s.Require().NoError(s.store.Create(s.ctx, s.newPayment(1, models.StatusFailed)))
	s.Require().NoError(s.store.Create(s.ctx, s.newPayment(1, models.StatusFailed)))
	s.Require().NoError(s.store.Create(s.ctx, s.newPayment(1, models.StatusCompleted)))

	all, err := s.store.ListByInvoice(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *PaymentStoreSuite) TestFindLatestByInvoice() {
	_, err := s.store.FindLatestByInvoice(s.ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)

	first := s.newPayment(1, models.StatusFailed)
	second := s.newPayment(1, models.StatusCompleted)
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	latest, err := s.store.FindLatestByInvoice(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(second.ID, latest.ID)
	s.Equal(models.StatusCompleted, latest.Status)
}
