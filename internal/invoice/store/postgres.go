package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"procurement/internal/invoice/models"
	"procurement/pkg/platform/sentinel"
	"procurement/pkg/platform/tx"
)

// Postgres persists invoices in the invoices table. All methods resolve
// their executor per call so writes participate in an ambient transaction.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const invoiceColumns = `id, invoice_number, vendor_id, amount, description, status, created_at, submitted_at, approved_at`

func (s *Postgres) Create(ctx context.Context, inv *models.Invoice) error {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO invoices (invoice_number, vendor_id, amount, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		inv.InvoiceNumber, inv.VendorID, inv.Amount, inv.Description, inv.Status, inv.CreatedAt,
	)
	if err := row.Scan(&inv.ID); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id int64) (*models.Invoice, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (s *Postgres) List(ctx context.Context, limit int) ([]*models.Invoice, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// UpdateStatus is the conditional transition write. The WHERE clause carries
// the expected prior status so two racing requests cannot both advance from
// the same stale state.
func (s *Postgres) UpdateStatus(ctx context.Context, id int64, from, to models.InvoiceStatus, stamp time.Time) error {
	var column string
	switch to {
	case models.StatusSubmitted:
		column = "submitted_at"
	case models.StatusApproved:
		column = "approved_at"
	default:
		return fmt.Errorf("unsupported target status %q", to)
	}

	res, err := tx.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE invoices SET status = $3, `+column+` = $4 WHERE id = $1 AND status = $2`,
		id, from, to, stamp,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing invoice from a lost race.
		if _, err := s.FindByID(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var submittedAt, approvedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.VendorID, &inv.Amount,
		&inv.Description, &inv.Status, &inv.CreatedAt, &submittedAt, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	if submittedAt.Valid {
		inv.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		inv.ApprovedAt = &approvedAt.Time
	}
	return inv, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// PostgresVendors reads the vendors table.
type PostgresVendors struct {
	db *sql.DB
}

func NewPostgresVendors(db *sql.DB) *PostgresVendors {
	return &PostgresVendors{db: db}
}

func (s *PostgresVendors) FindByID(ctx context.Context, id int64) (*models.Vendor, error) {
	v := &models.Vendor{}
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, name, contact_email, contact_phone, status
		FROM vendors WHERE id = $1`, id,
	).Scan(&v.ID, &v.Name, &v.ContactEmail, &v.ContactPhone, &v.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vendor: %w", err)
	}
	return v, nil
}

// PostgresDocuments reads the documents table. The document authority owns
// writes; this service only lists.
type PostgresDocuments struct {
	db *sql.DB
}

func NewPostgresDocuments(db *sql.DB) *PostgresDocuments {
	return &PostgresDocuments{db: db}
}

func (s *PostgresDocuments) ListByInvoice(ctx context.Context, invoiceID int64) ([]*models.Document, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, invoice_id, filename, original_filename, file_size, document_type, status, uploaded_at
		FROM documents WHERE invoice_id = $1 ORDER BY uploaded_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d := &models.Document{}
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.Filename, &d.OriginalFilename,
			&d.FileSize, &d.DocumentType, &d.Status, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
