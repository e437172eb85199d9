// Package dashboard serves the procurement stats snapshot: counts and totals
// aggregated across invoices and payments, cached in Redis and invalidated
// whenever the lifecycle advances.
package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
)

// Stats is the dashboard snapshot.
type Stats struct {
	TotalInvoices     int64           `json:"total_invoices"`
	DraftInvoices     int64           `json:"draft_invoices"`
	SubmittedInvoices int64           `json:"submitted_invoices"`
	ApprovedInvoices  int64           `json:"approved_invoices"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ApprovedAmount    decimal.Decimal `json:"approved_amount"`
	CompletedPayments int64           `json:"completed_payments"`
	FailedPayments    int64           `json:"failed_payments"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
}

// StatsStore computes the snapshot from primary storage.
type StatsStore interface {
	Stats(ctx context.Context) (*Stats, error)
}
