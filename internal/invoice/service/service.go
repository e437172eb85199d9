// Package service implements the invoice lifecycle orchestrator. It owns the
// draft -> submitted -> approved transitions, delegates authority calls to
// the validation coordinator and payment processor, and writes exactly one
// audit entry per state change inside the same transaction as the change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"procurement/internal/audit"
	"procurement/internal/invoice/models"
	"procurement/internal/invoice/store"
	paymentmodels "procurement/internal/payment/models"
	"procurement/internal/platform/metrics"
	"procurement/internal/validation"
	dErrors "procurement/pkg/domain-errors"
	"procurement/pkg/platform/sentinel"
	"procurement/pkg/platform/tx"
	"procurement/pkg/requestcontext"
)

// Validator runs the advisory pre-submission checks. Results are typed, not
// errors; submission proceeds regardless of what the authorities say.
type Validator interface {
	Validate(ctx context.Context, invoiceID int64, amount decimal.Decimal) validation.Result
}

// SettlementProcessor settles an invoice and records the attempt.
type SettlementProcessor interface {
	Process(ctx context.Context, inv *models.Invoice) (*paymentmodels.Payment, error)
}

// PaymentReader lists settlement history for the invoice detail view.
type PaymentReader interface {
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*paymentmodels.Payment, error)
}

// Invalidator drops derived read models after a state change. Implementations
// must be safe to call when the backing cache is absent.
type Invalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// NopInvalidator satisfies Invalidator when no cache is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateDashboard(context.Context) error { return nil }

// numberAttempts bounds the invoice number collision retry loop.
const numberAttempts = 5

// Orchestrator is the composition core of the lifecycle.
type Orchestrator struct {
	invoices  store.InvoiceStore
	vendors   store.VendorStore
	documents store.DocumentStore
	payments  PaymentReader
	validator Validator
	processor SettlementProcessor
	audit     audit.Store
	tx        tx.Runner
	cache     Invalidator
	metrics   *metrics.Metrics
	log       *slog.Logger
	tracer    trace.Tracer
}

// Deps carries the orchestrator's collaborators. Nil tx, cache, logger and
// metrics get safe defaults.
type Deps struct {
	Invoices  store.InvoiceStore
	Vendors   store.VendorStore
	Documents store.DocumentStore
	Payments  PaymentReader
	Validator Validator
	Processor SettlementProcessor
	Audit     audit.Store
	Tx        tx.Runner
	Cache     Invalidator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Tx == nil {
		d.Tx = tx.PassthroughRunner{}
	}
	if d.Cache == nil {
		d.Cache = NopInvalidator{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Orchestrator{
		invoices:  d.Invoices,
		vendors:   d.Vendors,
		documents: d.Documents,
		payments:  d.Payments,
		validator: d.Validator,
		processor: d.Processor,
		audit:     d.Audit,
		tx:        d.Tx,
		cache:     d.Cache,
		metrics:   d.Metrics,
		log:       d.Logger,
		tracer:    otel.Tracer("procurement/invoice"),
	}
}

// CreateInvoiceRequest is the validated input for CreateInvoice.
type CreateInvoiceRequest struct {
	VendorID    int64
	Amount      decimal.Decimal
	Description string
}

// CreateInvoice registers a draft invoice for an active vendor. Invoice
// number collisions are retried with a fresh suffix.
func (o *Orchestrator) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	ctx, span := o.tracer.Start(ctx, "invoice.create",
		trace.WithAttributes(attribute.Int64("vendor.id", req.VendorID)))
	defer span.End()

	vendor, err := o.vendors.FindByID(ctx, req.VendorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "vendor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up vendor")
	}
	if vendor.Status != models.VendorStatusActive {
		return nil, dErrors.New(dErrors.CodeBadRequest, "vendor is not active")
	}

	now := requestcontext.Now(ctx)
	var inv *models.Invoice
	for attempt := 0; attempt < numberAttempts; attempt++ {
		number := models.NewInvoiceNumber(now.Year(), rand.IntN(1_000_000))
		candidate, err := models.NewInvoice(req.VendorID, req.Amount, req.Description, number, now)
		if err != nil {
			return nil, err
		}
		err = o.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := o.invoices.Create(txCtx, candidate); err != nil {
				return err
			}
			return o.appendInvoiceAudit(txCtx, candidate, audit.ActionCreated, map[string]any{
				"invoice_number": candidate.InvoiceNumber,
				"vendor_id":      candidate.VendorID,
				"amount":         candidate.Amount,
			})
		})
		if err == nil {
			inv = candidate
			break
		}
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist invoice")
	}
	if inv == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique invoice number")
	}

	o.metrics.IncInvoicesCreated()
	o.log.InfoContext(ctx, "invoice created",
		"invoice_number", inv.InvoiceNumber,
		"vendor_id", inv.VendorID,
		"amount", inv.Amount,
	)
	o.invalidate(ctx)
	return inv, nil
}

// SubmitResult carries the submitted invoice plus the advisory authority
// outcomes that were gathered along the way.
type SubmitResult struct {
	Invoice    *models.Invoice
	Validation validation.Result
}

// SubmitInvoice moves a draft invoice to submitted. The authority pre-checks
// run first but never block the transition: their outcomes are recorded in
// the audit entry and surfaced to the caller.
func (o *Orchestrator) SubmitInvoice(ctx context.Context, id int64) (*SubmitResult, error) {
	ctx, span := o.tracer.Start(ctx, "invoice.submit",
		trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	inv, err := o.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanSubmit(inv.Status) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only draft invoices can be submitted")
	}

	result := o.validator.Validate(ctx, inv.ID, inv.Amount)

	now := requestcontext.Now(ctx)
	err = o.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := o.invoices.UpdateStatus(txCtx, inv.ID, models.StatusDraft, models.StatusSubmitted, now); err != nil {
			return err
		}
		return o.appendInvoiceAudit(txCtx, inv, audit.ActionSubmitted, map[string]any{
			"invoice_number":      inv.InvoiceNumber,
			"document_validation": result.Document,
			"payment_validation":  result.Payment,
		})
	})
	if err != nil {
		return nil, o.transitionError(err, "submit invoice")
	}

	inv.Status = models.StatusSubmitted
	inv.SubmittedAt = &now

	o.metrics.IncInvoicesSubmitted()
	o.log.InfoContext(ctx, "invoice submitted",
		"invoice_number", inv.InvoiceNumber,
		"document_validation", result.Document.Status,
		"payment_validation", result.Payment.Status,
	)
	o.invalidate(ctx)
	return &SubmitResult{Invoice: inv, Validation: result}, nil
}

// ApprovalResult pairs the settlement attempt with the invoice it may have
// approved. Invoice status only advances when the payment completed.
type ApprovalResult struct {
	Invoice *models.Invoice
	Payment *paymentmodels.Payment
}

// ApprovePayment settles a submitted invoice and, when the payment completes,
// moves the invoice to approved. A failed settlement leaves the invoice
// where it was so the approval can be retried.
func (o *Orchestrator) ApprovePayment(ctx context.Context, id int64) (*ApprovalResult, error) {
	ctx, span := o.tracer.Start(ctx, "invoice.approve",
		trace.WithAttributes(attribute.Int64("invoice.id", id)))
	defer span.End()

	inv, err := o.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanApprove(inv.Status) {
		return nil, dErrors.New(dErrors.CodeInvalidState, "invoice must be submitted before approval")
	}

	payment, err := o.processor.Process(ctx, inv)
	if err != nil {
		return nil, err
	}
	if !payment.Completed() {
		o.log.WarnContext(ctx, "settlement failed, invoice not approved",
			"invoice_number", inv.InvoiceNumber,
			"payment_number", payment.PaymentNumber,
		)
		return &ApprovalResult{Invoice: inv, Payment: payment}, nil
	}

	now := requestcontext.Now(ctx)
	err = o.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := o.invoices.UpdateStatus(txCtx, inv.ID, inv.Status, models.StatusApproved, now); err != nil {
			return err
		}
		return o.appendInvoiceAudit(txCtx, inv, audit.ActionApproved, map[string]any{
			"invoice_number": inv.InvoiceNumber,
			"payment_number": payment.PaymentNumber,
			"confirmation":   payment.ConfirmationNumber,
		})
	})
	if err != nil {
		return nil, o.transitionError(err, "approve invoice")
	}

	inv.Status = models.StatusApproved
	inv.ApprovedAt = &now

	o.log.InfoContext(ctx, "invoice approved",
		"invoice_number", inv.InvoiceNumber,
		"payment_number", payment.PaymentNumber,
	)
	o.invalidate(ctx)
	return &ApprovalResult{Invoice: inv, Payment: payment}, nil
}

// Detail is the invoice read model with its collaborating records.
type Detail struct {
	Invoice   *models.Invoice          `json:"invoice"`
	Vendor    *models.Vendor           `json:"vendor,omitempty"`
	Documents []*models.Document       `json:"documents"`
	Payments  []*paymentmodels.Payment `json:"payments"`
}

// GetInvoice assembles the detail view for one invoice.
func (o *Orchestrator) GetInvoice(ctx context.Context, id int64) (*Detail, error) {
	inv, err := o.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Invoice: inv, Documents: []*models.Document{}, Payments: []*paymentmodels.Payment{}}

	vendor, err := o.vendors.FindByID(ctx, inv.VendorID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up vendor")
	}
	detail.Vendor = vendor

	docs, err := o.documents.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	if docs != nil {
		detail.Documents = docs
	}

	payments, err := o.payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list payments")
	}
	if payments != nil {
		detail.Payments = payments
	}
	return detail, nil
}

// ListInvoices returns recent invoices, newest first.
func (o *Orchestrator) ListInvoices(ctx context.Context, limit int) ([]*models.Invoice, error) {
	invoices, err := o.invoices.List(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list invoices")
	}
	return invoices, nil
}

// AuditTrail returns the audit entries recorded for one invoice.
func (o *Orchestrator) AuditTrail(ctx context.Context, id int64) ([]*audit.Entry, error) {
	if _, err := o.findInvoice(ctx, id); err != nil {
		return nil, err
	}
	entries, err := o.audit.ListByEntity(ctx, audit.EntityInvoice, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries")
	}
	return entries, nil
}

func (o *Orchestrator) findInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := o.invoices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "invoice not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up invoice")
	}
	return inv, nil
}

func (o *Orchestrator) appendInvoiceAudit(ctx context.Context, inv *models.Invoice, action string, details map[string]any) error {
	return o.audit.Append(ctx, &audit.Entry{
		EntityType: audit.EntityInvoice,
		EntityID:   inv.ID,
		Action:     action,
		Details:    audit.Detail(details),
		CreatedAt:  requestcontext.Now(ctx),
	})
}

// transitionError maps a failed compare-and-swap to a conflict: the row moved
// out of the expected status between read and update.
func (o *Orchestrator) transitionError(err error, op string) error {
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.New(dErrors.CodeConflict, "invoice status changed concurrently")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "invoice not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}

// invalidate drops the dashboard snapshot after a committed change. Redis is
// outside the database transaction, so this is best effort; the snapshot TTL
// bounds any staleness if the call fails.
func (o *Orchestrator) invalidate(ctx context.Context) {
	if err := o.cache.InvalidateDashboard(ctx); err != nil {
		o.log.WarnContext(ctx, "dashboard cache invalidation failed", "error", err)
		return
	}
	o.metrics.IncCacheInvalidations()
}
