// Package models holds the invoice aggregate and its read-side collaborators.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "procurement/pkg/domain-errors"
)

// InvoiceStatus is the lifecycle state. Transitions only move forward:
// draft -> submitted -> approved.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSubmitted InvoiceStatus = "submitted"
	StatusApproved  InvoiceStatus = "approved"

	// StatusPending predates the current lifecycle and survives only in
	// imported data. Payment approval accepts it alongside submitted.
	StatusPending InvoiceStatus = "pending"
)

// CanSubmit reports whether submission is permitted from s.
func CanSubmit(s InvoiceStatus) bool {
	return s == StatusDraft
}

// CanApprove reports whether payment approval is permitted from s.
func CanApprove(s InvoiceStatus) bool {
	return s == StatusSubmitted || s == StatusPending
}

// MaxAmount is the upper bound a single invoice may carry, mirroring the
// payment authority's amount_range check.
var MaxAmount = decimal.NewFromInt(1_000_000)

// Invoice is owned by the lifecycle orchestrator and mutated only through
// lifecycle transitions.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	VendorID      int64           `json:"vendor_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
}

// NewInvoice validates input and builds a draft invoice. The invoice number
// is assigned by the caller because collision retries belong to the
// orchestrator.
func NewInvoice(vendorID int64, amount decimal.Decimal, description, number string, now time.Time) (*Invoice, error) {
	if vendorID <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "vendor id is required")
	}
	// Validate the cent-rounded amount, not the raw input: 0.004 reads as
	// positive but rounds to 0.00, which the store would reject.
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be greater than zero")
	}
	if amount.GreaterThan(MaxAmount) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount exceeds the $1,000,000 limit")
	}
	return &Invoice{
		InvoiceNumber: number,
		VendorID:      vendorID,
		Amount:        amount,
		Description:   strings.TrimSpace(description),
		Status:        StatusDraft,
		CreatedAt:     now,
	}, nil
}

// NewInvoiceNumber formats an INV-<year>-<6 digits> number. Uniqueness is
// enforced by the store; callers retry with a fresh suffix on conflict.
func NewInvoiceNumber(year, suffix int) string {
	return fmt.Sprintf("INV-%d-%06d", year, suffix%1_000_000)
}

// Vendor is read-only from the orchestrator's perspective.
type Vendor struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Status       string `json:"status"`
}

const VendorStatusActive = "active"

// Document metadata is owned by the document authority; the orchestrator
// only reads it for the invoice detail view.
type Document struct {
	ID               int64     `json:"id"`
	InvoiceID        int64     `json:"invoice_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	DocumentType     string    `json:"document_type"`
	Status           string    `json:"status"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
