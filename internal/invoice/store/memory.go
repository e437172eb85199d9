package store

import (
	"context"
	"sync"
	"time"

	"procurement/internal/invoice/models"
	"procurement/pkg/platform/sentinel"
)

// InMemory keeps invoices, vendors and documents in process. The mutex gives
// UpdateStatus the same check-and-set atomicity the SQL conditional UPDATE
// provides.
type InMemory struct {
	mu        sync.RWMutex
	nextID    int64
	invoices  map[int64]*models.Invoice
	numbers   map[string]int64
	vendors   map[int64]*models.Vendor
	documents map[int64][]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:    1,
		invoices:  make(map[int64]*models.Invoice),
		numbers:   make(map[string]int64),
		vendors:   make(map[int64]*models.Vendor),
		documents: make(map[int64][]*models.Document),
	}
}

func (s *InMemory) Create(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numbers[inv.InvoiceNumber]; taken {
		return sentinel.ErrConflict
	}
	cp := *inv
	cp.ID = s.nextID
	s.nextID++
	s.invoices[cp.ID] = &cp
	s.numbers[cp.InvoiceNumber] = cp.ID
	inv.ID = cp.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, limit int) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Invoice, 0, len(s.invoices))
	// Newest first, matching the SQL ordering.
	for id := s.nextID - 1; id >= 1; id-- {
		if inv, ok := s.invoices[id]; ok {
			cp := *inv
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, id int64, from, to models.InvoiceStatus, stamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if inv.Status != from {
		return sentinel.ErrInvalidState
	}
	inv.Status = to
	switch to {
	case models.StatusSubmitted:
		t := stamp
		inv.SubmittedAt = &t
	case models.StatusApproved:
		t := stamp
		inv.ApprovedAt = &t
	}
	return nil
}

// AddVendor seeds a vendor. Test and local-run helper.
func (s *InMemory) AddVendor(v *models.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vendors[cp.ID] = &cp
}

func (s *InMemory) FindVendorByID(_ context.Context, id int64) (*models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// AddDocument attaches document metadata to an invoice. Test helper.
func (s *InMemory) AddDocument(d *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.documents[cp.InvoiceID] = append(s.documents[cp.InvoiceID], &cp)
}

func (s *InMemory) ListDocumentsByInvoice(_ context.Context, invoiceID int64) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.documents[invoiceID] {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

// Vendors adapts the in-memory store to the VendorStore port.
func (s *InMemory) Vendors() VendorStore { return vendorView{s} }

// Documents adapts the in-memory store to the DocumentStore port.
func (s *InMemory) Documents() DocumentStore { return documentView{s} }

type vendorView struct{ s *InMemory }

func (v vendorView) FindByID(ctx context.Context, id int64) (*models.Vendor, error) {
	return v.s.FindVendorByID(ctx, id)
}

type documentView struct{ s *InMemory }

func (d documentView) ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.Document, error) {
	return d.s.ListDocumentsByInvoice(ctx, invoiceID)
}
