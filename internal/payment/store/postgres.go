package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"procurement/internal/payment/models"
	"procurement/pkg/platform/sentinel"
	"procurement/pkg/platform/tx"
)

// Postgres persists payments. The payments_one_completed_per_invoice partial
// unique index backs the duplicate-payment invariant; Create surfaces its
// violation as sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const paymentColumns = `id, payment_number, invoice_id, amount, payment_method, status, confirmation_number, processed_at`

func (s *Postgres) Create(ctx context.Context, p *models.Payment) error {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO payments (payment_number, invoice_id, amount, payment_method, status, confirmation_number, processed_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id`,
		p.PaymentNumber, p.InvoiceID, p.Amount, p.Method, p.Status, p.ConfirmationNumber, p.ProcessedAt,
	)
	if err := row.Scan(&p.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (s *Postgres) FindLatestByInvoice(ctx context.Context, invoiceID int64) (*models.Payment, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE invoice_id = $1 ORDER BY processed_at DESC, id DESC LIMIT 1`, invoiceID)
	return scanPayment(row)
}

func (s *Postgres) ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.Payment, error) {
	return s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY processed_at, id`, invoiceID)
}

func (s *Postgres) List(ctx context.Context, limit int) ([]*models.Payment, error) {
	return s.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY processed_at DESC, id DESC LIMIT $1`, limit)
}

func (s *Postgres) queryPayments(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var confirmation sql.NullString
	err := row.Scan(&p.ID, &p.PaymentNumber, &p.InvoiceID, &p.Amount,
		&p.Method, &p.Status, &confirmation, &p.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.ConfirmationNumber = confirmation.String
	return p, nil
}
