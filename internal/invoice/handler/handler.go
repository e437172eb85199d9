// Package handler exposes the invoice lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"procurement/internal/audit"
	"procurement/internal/invoice/models"
	"procurement/internal/invoice/service"
	"procurement/internal/validation"
	dErrors "procurement/pkg/domain-errors"
	"procurement/pkg/platform/httputil"
	"procurement/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler fronts.
type Service interface {
	CreateInvoice(ctx context.Context, req service.CreateInvoiceRequest) (*models.Invoice, error)
	SubmitInvoice(ctx context.Context, id int64) (*service.SubmitResult, error)
	ApprovePayment(ctx context.Context, id int64) (*service.ApprovalResult, error)
	GetInvoice(ctx context.Context, id int64) (*service.Detail, error)
	ListInvoices(ctx context.Context, limit int) ([]*models.Invoice, error)
	AuditTrail(ctx context.Context, id int64) ([]*audit.Entry, error)
}

// Handler wires invoice endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts invoice endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/invoices", h.HandleCreate)
	r.Get("/invoices", h.HandleList)
	r.Get("/invoices/{id}", h.HandleGet)
	r.Get("/invoices/{id}/audit", h.HandleAuditTrail)
	r.Post("/invoices/{id}/submit", h.HandleSubmit)
	r.Post("/invoices/{id}/approve", h.HandleApprove)
}

// CreateRequest is the POST /invoices body. Amount accepts both JSON numbers
// and strings.
type CreateRequest struct {
	VendorID    int64           `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// SubmitResponse reports the transition plus the advisory authority
// outcomes; authority downtime shows up here, never as a 5xx.
type SubmitResponse struct {
	Success            bool               `json:"success"`
	Invoice            *models.Invoice    `json:"invoice"`
	DocumentValidation validation.Outcome `json:"document_validation"`
	PaymentValidation  validation.Outcome `json:"payment_validation"`
}

// HandleCreate handles POST /invoices.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateRequest](w, r)
	if !ok {
		return
	}

	inv, err := h.service.CreateInvoice(ctx, service.CreateInvoiceRequest{
		VendorID:    req.VendorID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.logError(ctx, "invoice creation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inv)
}

// HandleSubmit handles POST /invoices/{id}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.service.SubmitInvoice(ctx, id)
	if err != nil {
		h.logError(ctx, "invoice submission failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{
		Success:            true,
		Invoice:            res.Invoice,
		DocumentValidation: res.Validation.Document,
		PaymentValidation:  res.Validation.Payment,
	})
}

// ApproveResponse reports the settlement attempt. Success mirrors the
// payment outcome: a failed settlement is a 200 with success=false.
type ApproveResponse struct {
	Success bool            `json:"success"`
	Invoice *models.Invoice `json:"invoice"`
	Payment any             `json:"payment"`
}

// HandleApprove handles POST /invoices/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.service.ApprovePayment(ctx, id)
	if err != nil {
		h.logError(ctx, "invoice approval failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ApproveResponse{
		Success: res.Payment.Completed(),
		Invoice: res.Invoice,
		Payment: res.Payment,
	})
}

// HandleGet handles GET /invoices/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleList handles GET /invoices.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50)
	invoices, err := h.service.ListInvoices(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// HandleAuditTrail handles GET /invoices/{id}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid invoice id"))
		return 0, false
	}
	return id, true
}

// maxListLimit caps page sizes; larger requests are clamped, not rejected.
const maxListLimit = 500

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
