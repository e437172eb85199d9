// Package store persists invoices and their read-side collaborators.
//
// Error contract: implementations return sentinel.ErrNotFound for missing
// rows, sentinel.ErrConflict for uniqueness violations, and
// sentinel.ErrInvalidState when a conditional status update finds the row in
// a different status than expected.
package store

import (
	"context"
	"time"

	"procurement/internal/invoice/models"
)

// InvoiceStore is the invoice aggregate's persistence port.
type InvoiceStore interface {
	// Create persists a new invoice and assigns its ID.
	Create(ctx context.Context, inv *models.Invoice) error
	FindByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context, limit int) ([]*models.Invoice, error)
	// UpdateStatus performs the compare-and-swap transition: the row moves
	// from->to only if it is still in from. The stamp records submitted_at
	// or approved_at depending on the target status.
	UpdateStatus(ctx context.Context, id int64, from, to models.InvoiceStatus, stamp time.Time) error
}

// VendorStore is read-only from the orchestrator's perspective.
type VendorStore interface {
	FindByID(ctx context.Context, id int64) (*models.Vendor, error)
}

// DocumentStore reads document metadata for the invoice detail view.
type DocumentStore interface {
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.Document, error)
}
