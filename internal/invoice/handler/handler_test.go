package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement/internal/audit"
	"procurement/internal/authority"
	"procurement/internal/invoice/models"
	"procurement/internal/invoice/service"
	invoicestore "procurement/internal/invoice/store"
	paymentservice "procurement/internal/payment/service"
	paymentstore "procurement/internal/payment/store"
	"procurement/internal/validation"
)

type stubValidator struct{ result validation.Result }

func (s stubValidator) Validate(context.Context, int64, decimal.Decimal) validation.Result {
	return s.result
}

func newRouter(t *testing.T, v service.Validator) (chi.Router, *invoicestore.InMemory) {
	t.Helper()
	invoices := invoicestore.NewInMemory()
	invoices.AddVendor(&models.Vendor{ID: 1, Name: "Acme Supplies", Status: models.VendorStatusActive})

	payments := paymentstore.NewInMemory()
	auditLog := audit.NewInMemoryStore()
	gateway := paymentservice.GatewayFunc(func(context.Context, int64, decimal.Decimal, string) (*authority.Settlement, error) {
		return &authority.Settlement{Success: true, Status: "completed", ConfirmationNumber: "CONF-FEEDC0FFEE99"}, nil
	})
	processor := paymentservice.NewProcessor(payments, gateway, auditLog, nil, paymentservice.Config{})

	orch := service.NewOrchestrator(service.Deps{
		Invoices:  invoices,
		Vendors:   invoices.Vendors(),
		Documents: invoices.Documents(),
		Payments:  payments,
		Validator: v,
		Processor: processor,
		Audit:     auditLog,
	})

	r := chi.NewRouter()
	New(orch, nil).Register(r)
	return r, invoices
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bothValid() service.Validator {
	return stubValidator{validation.Result{
		Document: validation.Outcome{Status: validation.StatusValid},
		Payment:  validation.Outcome{Status: validation.StatusValid},
	}}
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00","description":"Office chairs"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var inv models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, models.StatusDraft, inv.Status)
	assert.Regexp(t, `^INV-\d{4}-\d{6}$`, inv.InvoiceNumber)
}

func TestCreateInvoiceAcceptsNumericAmount(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":1500,"description":"Office chairs"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateInvoiceUnknownVendor(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":42,"amount":"10.00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestCreateInvoiceSubCentAmountRejected(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	// 0.004 rounds to 0.00; it must be refused, not stored as zero.
	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"0.004"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestQueryLimit(t *testing.T) {
	req := func(q string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/invoices"+q, nil)
	}
	assert.Equal(t, 50, queryLimit(req(""), 50))
	assert.Equal(t, 10, queryLimit(req("?limit=10"), 50))
	assert.Equal(t, 50, queryLimit(req("?limit=abc"), 50))
	assert.Equal(t, 50, queryLimit(req("?limit=-1"), 50))
	// Oversized limits clamp to the cap instead of resetting to the default.
	assert.Equal(t, maxListLimit, queryLimit(req("?limit=9999"), 50))
}

func TestCreateInvoiceMalformedBody(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEndpoint(t *testing.T) {
	r, _ := newRouter(t, bothValid())
	rec := doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var inv models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))

	rec = doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, models.StatusSubmitted, res.Invoice.Status)
	assert.Equal(t, validation.StatusValid, res.DocumentValidation.Status)
	assert.Equal(t, validation.StatusValid, res.PaymentValidation.Status)
}

func TestSubmitSucceedsWhenAuthoritiesDown(t *testing.T) {
	r, _ := newRouter(t, stubValidator{validation.Result{
		Document: validation.Outcome{Status: validation.StatusUnavailable, Cause: "timeout"},
		Payment:  validation.Outcome{Status: validation.StatusUnavailable, Cause: "authority_error"},
	}})
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)

	rec := doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")
	// Authority downtime is an advisory outcome, never a 5xx.
	require.Equal(t, http.StatusOK, rec.Code)

	var res SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, validation.StatusUnavailable, res.DocumentValidation.Status)
	assert.Equal(t, "timeout", res.DocumentValidation.Cause)
}

func TestSubmitNonDraftConflicts(t *testing.T) {
	r, _ := newRouter(t, bothValid())
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)
	doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")

	rec := doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
}

func TestSubmitUnknownInvoice(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodPost, "/invoices/404/submit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveEndpoint(t *testing.T) {
	r, _ := newRouter(t, bothValid())
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)
	doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")

	rec := doJSON(t, r, http.MethodPost, "/invoices/1/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res ApproveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, models.StatusApproved, res.Invoice.Status)
}

func TestGetInvoiceEndpoint(t *testing.T) {
	r, invoices := newRouter(t, bothValid())
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)
	invoices.AddDocument(&models.Document{ID: 1, InvoiceID: 1, Filename: "po.pdf"})

	rec := doJSON(t, r, http.MethodGet, "/invoices/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Invoice   *models.Invoice    `json:"invoice"`
		Vendor    *models.Vendor     `json:"vendor"`
		Documents []*models.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Acme Supplies", detail.Vendor.Name)
	assert.Len(t, detail.Documents, 1)
}

func TestGetInvoiceNotFound(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodGet, "/invoices/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetInvoiceBadID(t *testing.T) {
	r, _ := newRouter(t, bothValid())

	rec := doJSON(t, r, http.MethodGet, "/invoices/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInvoicesEndpoint(t *testing.T) {
	r, _ := newRouter(t, bothValid())
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"100.00"}`)
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"200.00"}`)

	rec := doJSON(t, r, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Invoices []*models.Invoice `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Invoices, 2)
}

func TestAuditTrailEndpoint(t *testing.T) {
	r, _ := newRouter(t, bothValid())
	doJSON(t, r, http.MethodPost, "/invoices", `{"vendor_id":1,"amount":"1500.00"}`)
	doJSON(t, r, http.MethodPost, "/invoices/1/submit", "")

	rec := doJSON(t, r, http.MethodGet, "/invoices/1/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []*audit.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 2)
	assert.Equal(t, audit.ActionCreated, body.Entries[0].Action)
	assert.Equal(t, audit.ActionSubmitted, body.Entries[1].Action)
}
