package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/intent"
)

// Store reads the outbox written by the reconciler's apply transaction.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListPending(ctx context.Context, limit int) ([]intent.Intent, error) {
	query := `
		SELECT id, kind, record_id, template_name, summary, created_at
		FROM intent_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var intents []intent.Intent

	for rows.Next() {
		var (
			in                intent.Intent
			kind              string
			template, summary sql.NullString
		)

		if err := rows.Scan(&in.ID, &kind, &in.RecordID, &template, &summary, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning intent: %w", err)
		}

		in.Kind = intent.Kind(kind)
		in.TemplateName = template.String
		in.Summary = summary.String

		intents = append(intents, in)
	}

	return intents, rows.Err()
}

func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE intent_outbox SET published_at = NOW() WHERE id = $1 AND published_at IS NULL`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("marking intent published: %w", err)
	}

	return nil
}
