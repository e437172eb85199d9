// Package service implements the payment processor: the gating half of the
// lifecycle. Unlike submission pre-checks, settlement failures here are real
// failures — money movement never proceeds on a degraded signal.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"procurement/internal/audit"
	"procurement/internal/authority"
	invoicemodels "procurement/internal/invoice/models"
	"procurement/internal/payment/models"
	"procurement/internal/platform/metrics"
	dErrors "procurement/pkg/domain-errors"
	"procurement/pkg/platform/sentinel"
	"procurement/pkg/platform/tx"
	"procurement/pkg/requestcontext"
)

// PaymentStore is the subset of the payment store the processor needs.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindLatestByInvoice(ctx context.Context, invoiceID int64) (*models.Payment, error)
}

// Gateway settles an invoice against the payment authority. Injectable so
// tests force completed or failed outcomes deterministically instead of
// relying on the authority's randomized simulation.
type Gateway interface {
	Process(ctx context.Context, invoiceID int64, amount decimal.Decimal, invoiceNumber string) (*authority.Settlement, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, invoiceID int64, amount decimal.Decimal, invoiceNumber string) (*authority.Settlement, error)

func (f GatewayFunc) Process(ctx context.Context, invoiceID int64, amount decimal.Decimal, invoiceNumber string) (*authority.Settlement, error) {
	return f(ctx, invoiceID, amount, invoiceNumber)
}

// Config tunes the processor. A zero timeout falls back to 10s.
type Config struct {
	SettlementTimeout time.Duration
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

const defaultSettlementTimeout = 10 * time.Second

// Processor enforces at-most-one completed payment per invoice and persists
// every settlement attempt, completed or failed, for audit.
type Processor struct {
	payments PaymentStore
	gateway  Gateway
	audit    audit.Store
	tx       tx.Runner
	timeout  time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewProcessor(payments PaymentStore, gateway Gateway, auditLog audit.Store, runner tx.Runner, cfg Config) *Processor {
	if cfg.SettlementTimeout <= 0 {
		cfg.SettlementTimeout = defaultSettlementTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if runner == nil {
		runner = tx.PassthroughRunner{}
	}
	return &Processor{
		payments: payments,
		gateway:  gateway,
		audit:    auditLog,
		tx:       runner,
		timeout:  cfg.SettlementTimeout,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Process settles one invoice. The returned payment may carry StatusFailed;
// that is a business outcome, not an error. Errors mean no settlement was
// attempted (duplicate) or its result could not be recorded.
func (p *Processor) Process(ctx context.Context, inv *invoicemodels.Invoice) (*models.Payment, error) {
	// Duplicate guard. The storage unique index remains the backstop for
	// races that slip past this read.
	latest, err := p.payments.FindLatestByInvoice(ctx, inv.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up previous payments")
	}
	if latest != nil && latest.Completed() {
		return nil, dErrors.New(dErrors.CodeConflict, "invoice has already been paid")
	}

	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	settlement, err := p.gateway.Process(sctx, inv.ID, inv.Amount, inv.InvoiceNumber)
	if err != nil {
		// Unlike the advisory pre-checks, an unreachable gateway aborts the
		// operation: there is no settlement outcome to record.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment authority unavailable")
	}

	now := requestcontext.Now(ctx)
	payment := &models.Payment{
		PaymentNumber: models.NewPaymentNumber(now),
		InvoiceID:     inv.ID,
		Amount:        inv.Amount,
		Method:        models.MethodACH,
		ProcessedAt:   now,
	}
	if settlement.Success {
		payment.Status = models.StatusCompleted
		payment.ConfirmationNumber = settlement.ConfirmationNumber
		if payment.ConfirmationNumber == "" {
			payment.ConfirmationNumber = models.NewConfirmationNumber()
		}
	} else {
		payment.Status = models.StatusFailed
	}

	err = p.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := p.payments.Create(txCtx, payment); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "invoice has already been paid")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist payment")
		}
		entry := &audit.Entry{
			EntityType: audit.EntityPayment,
			EntityID:   payment.ID,
			Action:     audit.ActionProcessed,
			Details: audit.Detail(map[string]any{
				"invoice_number": inv.InvoiceNumber,
				"amount":         inv.Amount,
				"status":         payment.Status,
				"confirmation":   payment.ConfirmationNumber,
			}),
			CreatedAt: now,
		}
		if err := p.audit.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record payment audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.metrics.IncPaymentsProcessed(string(payment.Status))
	p.log.InfoContext(ctx, "payment processed",
		"payment_number", payment.PaymentNumber,
		"invoice_number", inv.InvoiceNumber,
		"status", payment.Status,
	)
	return payment, nil
}
