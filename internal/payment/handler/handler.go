// Package handler exposes payment processing and history over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	invoiceservice "procurement/internal/invoice/service"
	"procurement/internal/payment/models"
	dErrors "procurement/pkg/domain-errors"
	"procurement/pkg/platform/httputil"
	"procurement/pkg/platform/sentinel"
	"procurement/pkg/requestcontext"
)

// Approver runs the approval flow for an invoice. Settlement and the
// invoice transition stay together so the two cannot drift.
type Approver interface {
	ApprovePayment(ctx context.Context, invoiceID int64) (*invoiceservice.ApprovalResult, error)
}

// Reader serves payment history.
type Reader interface {
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, limit int) ([]*models.Payment, error)
}

// Handler wires payment endpoints to the processor and store.
type Handler struct {
	approver Approver
	payments Reader
	logger   *slog.Logger
}

func New(approver Approver, payments Reader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{approver: approver, payments: payments, logger: logger}
}

// Register mounts payment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/payments/process", h.HandleProcess)
	r.Get("/payments", h.HandleList)
	r.Get("/payments/{id}", h.HandleGet)
}

// ProcessRequest is the POST /payments/process body.
type ProcessRequest struct {
	InvoiceID int64 `json:"invoice_id"`
}

// ProcessResponse reports the settlement outcome. Business failures are a
// 200 with success=false; only duplicates, bad state and unreachable
// authorities produce error statuses.
type ProcessResponse struct {
	Success            bool            `json:"success"`
	Status             models.Status   `json:"status"`
	PaymentNumber      string          `json:"payment_number"`
	ConfirmationNumber string          `json:"confirmation_number,omitempty"`
	Payment            *models.Payment `json:"payment"`
}

// HandleProcess handles POST /payments/process.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[ProcessRequest](w, r)
	if !ok {
		return
	}
	if req.InvoiceID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invoice_id is required"))
		return
	}

	res, err := h.approver.ApprovePayment(ctx, req.InvoiceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment processing failed",
			"request_id", requestcontext.RequestID(ctx),
			"invoice_id", req.InvoiceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProcessResponse{
		Success:            res.Payment.Completed(),
		Status:             res.Payment.Status,
		PaymentNumber:      res.Payment.PaymentNumber,
		ConfirmationNumber: res.Payment.ConfirmationNumber,
		Payment:            res.Payment,
	})
}

// HandleGet handles GET /payments/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid payment id"))
		return
	}
	payment, err := h.payments.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "payment not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "look up payment"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payment)
}

// HandleList handles GET /payments.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, 500)
		}
	}
	payments, err := h.payments.List(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list payments"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}
