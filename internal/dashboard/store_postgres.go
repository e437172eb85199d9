package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"procurement/internal/invoice/models"
	paymentmodels "procurement/internal/payment/models"
)

// PostgresStats aggregates the snapshot straight from the invoices and
// payments tables.
type PostgresStats struct {
	db *sql.DB
}

func NewPostgresStats(db *sql.DB) *PostgresStats {
	return &PostgresStats{db: db}
}

func (s *PostgresStats) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = $3), 0)
		FROM invoices`,
		models.StatusDraft, models.StatusSubmitted, models.StatusApproved,
	).Scan(
		&stats.TotalInvoices,
		&stats.DraftInvoices,
		&stats.SubmittedInvoices,
		&stats.ApprovedInvoices,
		&stats.TotalAmount,
		&stats.ApprovedAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate invoices: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(amount) FILTER (WHERE status = $1), 0)
		FROM payments`,
		paymentmodels.StatusCompleted, paymentmodels.StatusFailed,
	).Scan(
		&stats.CompletedPayments,
		&stats.FailedPayments,
		&stats.PaidAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate payments: %w", err)
	}
	return &stats, nil
}
