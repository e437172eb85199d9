package store

import (
	"context"
	"sync"

	"procurement/internal/payment/models"
	"procurement/pkg/platform/sentinel"
)

// InMemory keeps payment rows in process, enforcing the same partial
// uniqueness the Postgres index provides: at most one completed payment per
// invoice.
type InMemory struct {
	mu       sync.RWMutex
	nextID   int64
	payments []*models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1}
}

func (s *InMemory) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status == models.StatusCompleted {
		for _, existing := range s.payments {
			if existing.InvoiceID == p.InvoiceID && existing.Status == models.StatusCompleted {
				return sentinel.ErrConflict
			}
		}
	}
	cp := *p
	cp.ID = s.nextID
	s.nextID++
	s.payments = append(s.payments, &cp)
	p.ID = cp.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindLatestByInvoice(_ context.Context, invoiceID int64) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Rows append in insertion order; the last match is the latest attempt.
	for i := len(s.payments) - 1; i >= 0; i-- {
		if s.payments[i].InvoiceID == invoiceID {
			cp := *s.payments[i]
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByInvoice(_ context.Context, invoiceID int64) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) List(_ context.Context, limit int) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for i := len(s.payments) - 1; i >= 0; i-- {
		cp := *s.payments[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
