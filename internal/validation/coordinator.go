// Package validation coordinates the advisory pre-submission checks against
// the document and payment authorities. Outcomes are typed results, never
// errors: an unreachable authority degrades to Unavailable and must not stop
// the paperwork process.
package validation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"procurement/internal/authority"
	"procurement/internal/platform/metrics"
)

// Status classifies one authority call's outcome.
type Status string

const (
	StatusValid       Status = "valid"
	StatusInvalid     Status = "invalid"
	StatusUnavailable Status = "unavailable"
)

// Outcome is the typed result of a single authority check.
type Outcome struct {
	Status Status            `json:"status"`
	Checks []authority.Check `json:"checks,omitempty"`
	Issues []authority.Issue `json:"issues,omitempty"`
	// Cause explains an unavailable outcome (timeout vs. transport error).
	Cause string `json:"cause,omitempty"`
}

// Result pairs the two authority outcomes for one validation run.
type Result struct {
	Document Outcome `json:"document"`
	Payment  Outcome `json:"payment"`
}

//go:generate mockgen -source=coordinator.go -destination=mocks/mocks.go -package=mocks DocumentAuthority,PaymentAuthority

// DocumentAuthority is the document pre-check dependency.
type DocumentAuthority interface {
	Validate(ctx context.Context, invoiceID int64) (*authority.DocumentValidation, error)
}

// PaymentAuthority is the payment pre-check dependency.
type PaymentAuthority interface {
	Validate(ctx context.Context, invoiceID int64, amount decimal.Decimal) (*authority.PaymentValidation, error)
}

// Config tunes the coordinator. Zero timeouts fall back to 10s.
type Config struct {
	DocumentTimeout time.Duration
	PaymentTimeout  time.Duration
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

const defaultCheckTimeout = 10 * time.Second

// Coordinator issues both checks concurrently, each under its own deadline.
// It performs a single attempt per check and has no side effects on the
// invoice; retry policy belongs to the caller.
type Coordinator struct {
	documents  DocumentAuthority
	payments   PaymentAuthority
	docTimeout time.Duration
	payTimeout time.Duration
	log        *slog.Logger
	metrics    *metrics.Metrics
}

func NewCoordinator(documents DocumentAuthority, payments PaymentAuthority, cfg Config) *Coordinator {
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = defaultCheckTimeout
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = defaultCheckTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		documents:  documents,
		payments:   payments,
		docTimeout: cfg.DocumentTimeout,
		payTimeout: cfg.PaymentTimeout,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Validate runs the document and payment checks in parallel and joins them.
// The goroutines never return errors; failures are folded into the outcome.
func (c *Coordinator) Validate(ctx context.Context, invoiceID int64, amount decimal.Decimal) Result {
	var result Result
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, c.docTimeout)
		defer cancel()

		res, err := c.documents.Validate(cctx, invoiceID)
		c.metrics.ObserveAuthorityCheck("document", time.Since(start))
		result.Document = c.classifyDocument(ctx, invoiceID, res, err)
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, c.payTimeout)
		defer cancel()

		res, err := c.payments.Validate(cctx, invoiceID, amount)
		c.metrics.ObserveAuthorityCheck("payment", time.Since(start))
		result.Payment = c.classifyPayment(ctx, invoiceID, res, err)
		return nil
	})

	_ = g.Wait()
	return result
}

func (c *Coordinator) classifyDocument(ctx context.Context, invoiceID int64, res *authority.DocumentValidation, err error) Outcome {
	if err != nil {
		return c.unavailable(ctx, "document", invoiceID, err)
	}
	if !res.Valid {
		return Outcome{Status: StatusInvalid, Checks: res.Validations, Issues: res.Issues}
	}
	return Outcome{Status: StatusValid, Checks: res.Validations, Issues: res.Issues}
}

func (c *Coordinator) classifyPayment(ctx context.Context, invoiceID int64, res *authority.PaymentValidation, err error) Outcome {
	if err != nil {
		return c.unavailable(ctx, "payment", invoiceID, err)
	}
	if !res.Valid {
		return Outcome{Status: StatusInvalid, Checks: res.Validations, Issues: res.Issues}
	}
	return Outcome{Status: StatusValid, Checks: res.Validations, Issues: res.Issues}
}

func (c *Coordinator) unavailable(ctx context.Context, name string, invoiceID int64, err error) Outcome {
	cause := "authority_error"
	if errors.Is(err, context.DeadlineExceeded) {
		cause = "timeout"
	}
	c.log.WarnContext(ctx, "authority check unavailable",
		"authority", name,
		"invoice_id", invoiceID,
		"cause", cause,
		"error", err.Error(),
	)
	return Outcome{Status: StatusUnavailable, Cause: cause}
}
