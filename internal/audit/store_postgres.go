package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"procurement/pkg/platform/tx"
)

// PostgresStore persists audit entries in the audit_logs table. Writes pick
// up an ambient transaction from context so an entry commits atomically with
// the transition it records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	details := entry.Details
	if len(details) == 0 {
		details = []byte(`{}`)
	}
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO audit_logs (entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		entry.EntityType, entry.EntityID, entry.Action, details, createdAtOrNow(entry.CreatedAt),
	)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*Entry, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, id`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) Unpublished(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unpublished audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_logs SET published_at = $2 WHERE id = ANY($1)`,
		pq.Array(ids), at,
	)
	if err != nil {
		return fmt.Errorf("mark audit entries published: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var out []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
