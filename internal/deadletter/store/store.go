package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	id, provider, provider_event_id, payload, reason, retryable, attempts,
	last_error, next_attempt_at, resolved_at, created_at, updated_at
`

type scanner interface {
	Scan(dest ...any) error
}

func scanLetter(s scanner) (*deadletter.Letter, error) {
	var l deadletter.Letter

	var provider, reason string

	if err := s.Scan(
		&l.ID, &provider, &l.ProviderEventID, &l.Payload, &reason, &l.Retryable, &l.Attempts,
		&l.LastError, &l.NextAttemptAt, &l.ResolvedAt, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.Provider = event.Provider(provider)
	l.Reason = deadletter.Reason(reason)

	return &l, nil
}

// Append keeps one letter per provider event. A repeat delivery refreshes the
// payload and diagnosis but keeps the attempt count and any earlier schedule.
func (s *Store) Append(ctx context.Context, l *deadletter.Letter) error {
	query := `
		INSERT INTO dead_letters (
			provider, provider_event_id, payload, reason, retryable, last_error, next_attempt_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, provider_event_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			reason = EXCLUDED.reason,
			retryable = EXCLUDED.retryable,
			last_error = EXCLUDED.last_error,
			next_attempt_at = CASE
				WHEN EXCLUDED.retryable THEN COALESCE(dead_letters.next_attempt_at, EXCLUDED.next_attempt_at)
				ELSE NULL
			END,
			resolved_at = NULL,
			updated_at = NOW()
		RETURNING ` + selectColumns

	row := s.db.QueryRowContext(ctx, query,
		l.Provider, l.ProviderEventID, l.Payload, l.Reason, l.Retryable, l.LastError, l.NextAttemptAt,
	)

	stored, err := scanLetter(row)
	if err != nil {
		return fmt.Errorf("inserting dead letter: %w", err)
	}

	*l = *stored

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*deadletter.Letter, error) {
	query := `SELECT ` + selectColumns + ` FROM dead_letters WHERE id = $1`

	l, err := scanLetter(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, deadletter.ErrNotFound
		}

		return nil, fmt.Errorf("getting dead letter: %w", err)
	}

	return l, nil
}

func (s *Store) List(ctx context.Context, filter deadletter.ListFilter) ([]*deadletter.Letter, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Reason != nil {
		args = append(args, *filter.Reason)
		conditions = append(conditions, fmt.Sprintf("reason = $%d", len(args)))
	}

	if filter.OnlyOpen {
		conditions = append(conditions, "resolved_at IS NULL")
	}

	query := `SELECT ` + selectColumns + ` FROM dead_letters`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.query(ctx, query, args...)
}

func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]*deadletter.Letter, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM dead_letters
		WHERE resolved_at IS NULL AND retryable AND next_attempt_at <= $1
		ORDER BY next_attempt_at
		LIMIT $2
	`

	return s.query(ctx, query, now, limit)
}

func (s *Store) UpdateAttempt(ctx context.Context, l *deadletter.Letter) error {
	query := `
		UPDATE dead_letters
		SET attempts = $2, reason = $3, retryable = $4, last_error = $5,
		    next_attempt_at = $6, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, l.ID, l.Attempts, l.Reason, l.Retryable, l.LastError, l.NextAttemptAt)
	if err != nil {
		return fmt.Errorf("updating dead letter: %w", err)
	}

	return expectOne(res)
}

func (s *Store) Resolve(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE dead_letters
		SET resolved_at = $2, next_attempt_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("resolving dead letter: %w", err)
	}

	return expectOne(res)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*deadletter.Letter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dead letters: %w", err)
	}
	defer rows.Close()

	var letters []*deadletter.Letter

	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dead letter: %w", err)
		}

		letters = append(letters, l)
	}

	return letters, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return deadletter.ErrNotFound
	}

	return nil
}
