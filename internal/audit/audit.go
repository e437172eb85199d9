// Package audit provides the append-only record of state-changing actions.
// Entries are written inside the same transaction as the transition they
// describe, so they are durable before the HTTP response returns.
package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entity type tags used across the service.
const (
	EntityInvoice = "invoice"
	EntityPayment = "payment"
)

// Action tags. One entry per lifecycle transition.
const (
	ActionCreated   = "created"
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionProcessed = "processed"
)

// Entry is a single audit record. Append-only; never updated or deleted by
// this service.
type Entry struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Action     string          `json:"action"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store appends and reads audit entries.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*Entry, error)
}

// Outbox exposes the unpublished backlog to the event stream worker.
type Outbox interface {
	Unpublished(ctx context.Context, limit int) ([]*Entry, error)
	MarkPublished(ctx context.Context, ids []int64, at time.Time) error
}

// Detail marshals a detail blob, falling back to an empty object. Audit
// detail is best-effort metadata; a marshal failure must not abort the
// transition that produced it.
func Detail(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
