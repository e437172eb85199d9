package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/audit"
	"procurement/internal/authority"
	"procurement/internal/invoice/models"
	invoicestore "procurement/internal/invoice/store"
	paymentmodels "procurement/internal/payment/models"
	paymentservice "procurement/internal/payment/service"
	paymentstore "procurement/internal/payment/store"
	"procurement/internal/validation"
	dErrors "procurement/pkg/domain-errors"
)

// stubValidator returns a fixed validation result.
type stubValidator struct{ result validation.Result }

func (s stubValidator) Validate(context.Context, int64, decimal.Decimal) validation.Result {
	return s.result
}

func bothValid() validation.Result {
	return validation.Result{
		Document: validation.Outcome{Status: validation.StatusValid},
		Payment:  validation.Outcome{Status: validation.StatusValid},
	}
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) InvalidateDashboard(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	orch     *Orchestrator
	invoices *invoicestore.InMemory
	payments *paymentstore.InMemory
	audit    *audit.InMemoryStore
	cache    *countingInvalidator
	gateway  *scriptedGateway
}

// scriptedGateway answers settlement calls from a queue; an empty queue
// answers success.
type scriptedGateway struct {
	mu    sync.Mutex
	queue []*authority.Settlement
	calls int
}

func (g *scriptedGateway) Process(context.Context, int64, decimal.Decimal, string) (*authority.Settlement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.queue) > 0 {
		next := g.queue[0]
		g.queue = g.queue[1:]
		return next, nil
	}
	return &authority.Settlement{Success: true, Status: "completed", ConfirmationNumber: "CONF-A1B2C3D4E5F6"}, nil
}

func newFixture(t *testing.T, v Validator) *fixture {
	t.Helper()
	invoices := invoicestore.NewInMemory()
	invoices.AddVendor(&models.Vendor{ID: 1, Name: "Acme Supplies", Status: models.VendorStatusActive})
	invoices.AddVendor(&models.Vendor{ID: 2, Name: "Gone Corp", Status: "inactive"})

	payments := paymentstore.NewInMemory()
	auditLog := audit.NewInMemoryStore()
	gateway := &scriptedGateway{}
	processor := paymentservice.NewProcessor(payments, gateway, auditLog, nil, paymentservice.Config{})
	cache := &countingInvalidator{}

	orch := NewOrchestrator(Deps{
		Invoices:  invoices,
		Vendors:   invoices.Vendors(),
		Documents: invoices.Documents(),
		Payments:  payments,
		Validator: v,
		Processor: processor,
		Audit:     auditLog,
		Cache:     cache,
	})
	return &fixture{orch: orch, invoices: invoices, payments: payments, audit: auditLog, cache: cache, gateway: gateway}
}

func (f *fixture) createInvoice(t *testing.T, amount string) *models.Invoice {
	t.Helper()
	inv, err := f.orch.CreateInvoice(context.Background(), CreateInvoiceRequest{
		VendorID:    1,
		Amount:      decimal.RequireFromString(amount),
		Description: "Office chairs",
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})

	inv := f.createInvoice(t, "1500.00")
	assert.Equal(t, models.StatusDraft, inv.Status)
	assert.Regexp(t, `^INV-\d{4}-\d{6}$`, inv.InvoiceNumber)

	entries, err := f.audit.ListByEntity(context.Background(), audit.EntityInvoice, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreated, entries[0].Action)
}

func TestCreateInvoiceRejectsInactiveVendor(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})

	_, err := f.orch.CreateInvoice(context.Background(), CreateInvoiceRequest{
		VendorID: 2,
		Amount:   decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestCreateInvoiceRejectsUnknownVendor(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})

	_, err := f.orch.CreateInvoice(context.Background(), CreateInvoiceRequest{
		VendorID: 99,
		Amount:   decimal.RequireFromString("10.00"),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestCreateInvoiceRejectsExcessiveAmount(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})

	_, err := f.orch.CreateInvoice(context.Background(), CreateInvoiceRequest{
		VendorID: 1,
		Amount:   decimal.RequireFromString("1000000.01"),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestSubmitInvoiceHappyPath(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")

	res, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, res.Invoice.Status)
	require.NotNil(t, res.Invoice.SubmittedAt)
	assert.Equal(t, validation.StatusValid, res.Validation.Document.Status)
	assert.Equal(t, validation.StatusValid, res.Validation.Payment.Status)

	entries, err := f.audit.ListByEntity(context.Background(), audit.EntityInvoice, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSubmitted, entries[1].Action)
}

func TestSubmitSucceedsWhenAuthoritiesUnavailable(t *testing.T) {
	// Advisory checks degrade, submission still goes through.
	f := newFixture(t, stubValidator{validation.Result{
		Document: validation.Outcome{Status: validation.StatusUnavailable, Cause: "timeout"},
		Payment:  validation.Outcome{Status: validation.StatusUnavailable, Cause: "authority_error"},
	}})
	inv := f.createInvoice(t, "1500.00")

	res, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, res.Invoice.Status)
	assert.Equal(t, validation.StatusUnavailable, res.Validation.Document.Status)
}

func TestSubmitRejectsNonDraft(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")

	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	_, err = f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidState, dErrors.CodeOf(err))
}

func TestSubmitUnknownInvoice(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})

	_, err := f.orch.SubmitInvoice(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestApprovePaymentHappyPath(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	res, err := f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.Invoice.Status)
	require.NotNil(t, res.Invoice.ApprovedAt)
	assert.Equal(t, paymentmodels.StatusCompleted, res.Payment.Status)
	assert.Equal(t, "CONF-A1B2C3D4E5F6", res.Payment.ConfirmationNumber)

	// One audit entry per transition: created, submitted, approved.
	entries, err := f.audit.ListByEntity(context.Background(), audit.EntityInvoice, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.ActionApproved, entries[2].Action)
}

func TestApproveRejectsDraftInvoice(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")

	_, err := f.orch.ApprovePayment(context.Background(), inv.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidState, dErrors.CodeOf(err))
}

func TestApproveAcceptsLegacyPendingStatus(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	require.NoError(t, f.invoices.UpdateStatus(context.Background(), inv.ID, models.StatusDraft, models.StatusPending, time.Now()))

	res, err := f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.Invoice.Status)
}

func TestApproveFailedSettlementKeepsInvoiceSubmitted(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	f.gateway.queue = []*authority.Settlement{{Success: false, Status: "failed", Error: "insufficient funds"}}

	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	res, err := f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentmodels.StatusFailed, res.Payment.Status)
	assert.Equal(t, models.StatusSubmitted, res.Invoice.Status)

	// Retry after failure succeeds.
	res, err = f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentmodels.StatusCompleted, res.Payment.Status)
	assert.Equal(t, models.StatusApproved, res.Invoice.Status)
}

func TestApproveDuplicateConflicts(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	_, err = f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)

	// Second approval: invoice is already approved.
	_, err = f.orch.ApprovePayment(context.Background(), inv.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInvalidState, dErrors.CodeOf(err))
}

func TestConcurrentApprovalsYieldOneCompletedPayment(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.ApprovePayment(context.Background(), inv.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	all, err := f.payments.ListByInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	var completed int
	for _, p := range all {
		if p.Completed() {
			completed++
		}
	}
	assert.Equal(t, 1, completed, "exactly one completed payment despite the race")
}

func TestCacheInvalidatedOnEveryTransition(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	_, err = f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, f.cache.count())
}

func TestGetInvoiceDetail(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	f.invoices.AddDocument(&models.Document{ID: 1, InvoiceID: inv.ID, Filename: "po.pdf"})
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	_, err = f.orch.ApprovePayment(context.Background(), inv.ID)
	require.NoError(t, err)

	detail, err := f.orch.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, detail.Invoice.Status)
	require.NotNil(t, detail.Vendor)
	assert.Equal(t, "Acme Supplies", detail.Vendor.Name)
	assert.Len(t, detail.Documents, 1)
	assert.Len(t, detail.Payments, 1)
}

func TestListInvoicesNewestFirst(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	first := f.createInvoice(t, "100.00")
	second := f.createInvoice(t, "200.00")

	invoices, err := f.orch.ListInvoices(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, second.ID, invoices[0].ID)
	assert.Equal(t, first.ID, invoices[1].ID)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t, stubValidator{bothValid()})
	inv := f.createInvoice(t, "1500.00")
	_, err := f.orch.SubmitInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	entries, err := f.orch.AuditTrail(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCreated, entries[0].Action)
	assert.Equal(t, audit.ActionSubmitted, entries[1].Action)
}
