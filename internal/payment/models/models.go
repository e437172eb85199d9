// Package models holds the payment record created by the payment processor.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the settlement outcome. Failed attempts are retained for audit,
// never discarded.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// MethodACH is the only settlement rail the gateway currently supports.
const MethodACH = "ACH"

// Payment rows are immutable once written; a retry after failure creates a
// new row rather than updating the old one.
type Payment struct {
	ID                 int64           `json:"id"`
	PaymentNumber      string          `json:"payment_number"`
	InvoiceID          int64           `json:"invoice_id"`
	Amount             decimal.Decimal `json:"amount"`
	Method             string          `json:"payment_method"`
	Status             Status          `json:"status"`
	ConfirmationNumber string          `json:"confirmation_number,omitempty"`
	ProcessedAt        time.Time       `json:"processed_at"`
}

// Completed reports whether this payment settled successfully.
func (p *Payment) Completed() bool {
	return p.Status == StatusCompleted
}

// NewPaymentNumber formats PAY-<yyyymmdd>-<8 hex> from the processing date
// plus a random suffix.
func NewPaymentNumber(now time.Time) string {
	return "PAY-" + now.Format("20060102") + "-" + randomHex(8)
}

// NewConfirmationNumber formats CONF-<12 hex>. Generated only for completed
// settlements when the gateway did not supply its own code.
func NewConfirmationNumber() string {
	return "CONF-" + randomHex(12)
}

func randomHex(n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:n])
}
