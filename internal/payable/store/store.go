package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ScanRecord reads a record row in SelectRecordColumns order.
func ScanRecord(s scanner) (*payable.Record, error) {
	var rec payable.Record

	var kind, status string

	var paymentID, interval, name, phone sql.NullString

	if err := s.Scan(
		&rec.ID, &kind, &rec.ExternalReference, &paymentID, &status,
		&rec.Amount, &rec.Currency,
		&rec.Customer.Email, &name, &phone,
		&interval, &rec.BillingCycle, &rec.NextBillingAt, &rec.LastEventAt,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.Kind = payable.Kind(kind)
	rec.Status = payable.Status(status)
	rec.BillingInterval = payable.Interval(interval.String)
	rec.Customer.Name = name.String
	rec.Customer.Phone = phone.String

	if paymentID.Valid {
		rec.ProviderPaymentID = new(paymentID.String)
	}

	return &rec, nil
}

const SelectRecordColumns = `
	r.id, r.kind, r.external_reference, r.provider_payment_id, r.status,
	r.amount, r.currency,
	r.customer_email, r.customer_name, r.customer_phone,
	r.billing_interval, r.billing_cycle, r.next_billing_at, r.last_event_at,
	r.version, r.created_at, r.updated_at
`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

func (s *Store) CreateRecord(ctx context.Context, rec *payable.Record) error {
	query := `
		INSERT INTO payable_records (
			kind, external_reference, status, amount, currency,
			customer_email, customer_name, customer_phone, billing_interval,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, version, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		rec.Kind,
		rec.ExternalReference,
		rec.Status,
		rec.Amount,
		rec.Currency,
		rec.Customer.Email,
		nullString(rec.Customer.Name),
		nullString(rec.Customer.Phone),
		nullString(string(rec.BillingInterval)),
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err, "payable_records_external_reference_key") {
			return payable.ErrDuplicateReference
		}

		return fmt.Errorf("creating record: %w", err)
	}

	return nil
}

func (s *Store) GetRecord(ctx context.Context, id uuid.UUID) (*payable.Record, error) {
	query := `SELECT ` + SelectRecordColumns + ` FROM payable_records r WHERE r.id = $1`

	rec, err := ScanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payable.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	return rec, nil
}

func (s *Store) GetRecordByReference(ctx context.Context, ref string) (*payable.Record, error) {
	query := `SELECT ` + SelectRecordColumns + ` FROM payable_records r WHERE r.external_reference = $1`

	rec, err := ScanRecord(s.db.QueryRowContext(ctx, query, ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payable.ErrNotFound
		}

		return nil, fmt.Errorf("getting record by reference: %w", err)
	}

	return rec, nil
}

func (s *Store) ListRecords(ctx context.Context, filter payable.ListFilter) ([]*payable.Record, error) {
	query := `SELECT ` + SelectRecordColumns + ` FROM payable_records r WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND r.kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND r.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY r.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*payable.Record

	for rows.Next() {
		rec, err := ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return recs, nil
}

func (s *Store) ListLedger(ctx context.Context, recordID uuid.UUID) ([]*payable.LedgerEntry, error) {
	query := `
		SELECT id, record_id, provider, provider_event_id, provider_payment_id,
			amount, currency, outcome, occurred_at, created_at
		FROM ledger_entries
		WHERE record_id = $1
		ORDER BY occurred_at ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []*payable.LedgerEntry

	for rows.Next() {
		var e payable.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.RecordID, &e.Provider, &e.ProviderEventID, &e.ProviderPaymentID,
			&e.Amount, &e.Currency, &e.Outcome, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger: %w", err)
	}

	return entries, nil
}

func (s *Store) ListAudit(ctx context.Context, recordID uuid.UUID) ([]*payable.AuditEntry, error) {
	query := `
		SELECT id, record_id, actor, action, from_status, to_status, reason, created_at
		FROM admin_audit
		WHERE record_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("listing audit: %w", err)
	}
	defer rows.Close()

	var entries []*payable.AuditEntry

	for rows.Next() {
		var (
			e        payable.AuditEntry
			from, to sql.NullString
		)

		if err := rows.Scan(&e.ID, &e.RecordID, &e.Actor, &e.Action, &from, &to, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		e.FromStatus = payable.Status(from.String)
		e.ToStatus = payable.Status(to.String)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit: %w", err)
	}

	return entries, nil
}
