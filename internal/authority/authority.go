// Package authority holds HTTP clients for the two independently owned
// remote services the orchestrator coordinates with: the document validation
// authority and the payment validation/processing authority.
//
// Clients carry no internal timeout; every call is expected to arrive with a
// caller-set deadline so the coordinator and processor own their own bounds.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Check is a single named validation performed by an authority.
type Check struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
}

// Issue is a warning or error raised by an authority during validation.
type Issue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DocumentValidation is the document authority's verdict for an invoice's
// attached paperwork.
type DocumentValidation struct {
	Valid         bool    `json:"valid"`
	DocumentCount int     `json:"document_count"`
	Validations   []Check `json:"validations"`
	Issues        []Issue `json:"issues"`
}

// PaymentValidation is the payment authority's pre-settlement verdict.
type PaymentValidation struct {
	Valid       bool    `json:"valid"`
	Validations []Check `json:"validations"`
	Issues      []Issue `json:"issues"`
}

// Settlement is the payment authority's processing outcome. A false Success
// is a business result, not a transport failure.
type Settlement struct {
	Success            bool   `json:"success"`
	Status             string `json:"status"`
	PaymentNumber      string `json:"payment_number"`
	ConfirmationNumber string `json:"confirmation_number"`
	Error              string `json:"error"`
}

// DocumentClient calls the document authority.
type DocumentClient struct {
	base string
	http *http.Client
}

func NewDocumentClient(baseURL string) *DocumentClient {
	return &DocumentClient{base: baseURL, http: &http.Client{}}
}

// Validate checks document completeness for an invoice.
func (c *DocumentClient) Validate(ctx context.Context, invoiceID int64) (*DocumentValidation, error) {
	var out DocumentValidation
	err := postJSON(ctx, c.http, c.base+"/api/documents/validate",
		map[string]any{"invoice_id": invoiceID}, &out)
	if err != nil {
		return nil, fmt.Errorf("document validate: %w", err)
	}
	return &out, nil
}

// PaymentClient calls the payment authority for both pre-checks and
// settlement.
type PaymentClient struct {
	base string
	http *http.Client
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{base: baseURL, http: &http.Client{}}
}

// Validate runs the authority's advisory pre-settlement checks.
func (c *PaymentClient) Validate(ctx context.Context, invoiceID int64, amount decimal.Decimal) (*PaymentValidation, error) {
	var out PaymentValidation
	err := postJSON(ctx, c.http, c.base+"/api/payments/validate",
		map[string]any{"invoice_id": invoiceID, "amount": amount}, &out)
	if err != nil {
		return nil, fmt.Errorf("payment validate: %w", err)
	}
	return &out, nil
}

// Process asks the gateway to settle the invoice. The authority persists its
// own view of the attempt; ours is written by the payment processor.
func (c *PaymentClient) Process(ctx context.Context, invoiceID int64, amount decimal.Decimal, invoiceNumber string) (*Settlement, error) {
	var out Settlement
	err := postJSON(ctx, c.http, c.base+"/api/payments/process",
		map[string]any{"invoice_id": invoiceID, "amount": amount, "invoice_number": invoiceNumber}, &out)
	if err != nil {
		return nil, fmt.Errorf("payment process: %w", err)
	}
	return &out, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
