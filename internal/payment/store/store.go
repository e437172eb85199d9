// Package store persists payment records.
//
// Error contract: sentinel.ErrNotFound for missing rows, sentinel.ErrConflict
// when the one-completed-payment-per-invoice constraint rejects a write.
package store

import (
	"context"

	"procurement/internal/payment/models"
)

// Store is the payment record persistence port.
type Store interface {
	// Create persists a payment attempt and assigns its ID. A completed
	// payment for an invoice that already has one fails with ErrConflict;
	// the storage layer, not application code, wins that race.
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	// FindLatestByInvoice returns the most recent attempt for an invoice.
	FindLatestByInvoice(ctx context.Context, invoiceID int64) (*models.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.Payment, error)
	List(ctx context.Context, limit int) ([]*models.Payment, error)
}
