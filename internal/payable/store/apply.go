package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

type applyTx struct {
	tx  *sql.Tx
	rec *payable.Record
}

// BeginApply opens a transaction holding a row lock on the record. Concurrent
// reconciliations of the same record queue behind it.
func (s *Store) BeginApply(ctx context.Context, recordID uuid.UUID) (payable.ApplyTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning apply tx: %w", err)
	}

	query := `SELECT ` + SelectRecordColumns + ` FROM payable_records r WHERE r.id = $1 FOR UPDATE`

	rec, err := ScanRecord(dbTx.QueryRowContext(ctx, query, recordID))
	if err != nil {
		dbTx.Rollback()

		if errors.Is(err, sql.ErrNoRows) {
			return nil, payable.ErrNotFound
		}

		return nil, fmt.Errorf("locking record: %w", err)
	}

	return &applyTx{tx: dbTx, rec: rec}, nil
}

func (a *applyTx) Record() *payable.Record { return a.rec }
func (a *applyTx) Commit() error           { return a.tx.Commit() }

func (a *applyTx) Rollback() error {
	err := a.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

func (a *applyTx) HasEvent(ctx context.Context, provider event.Provider, providerEventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM applied_events WHERE provider = $1 AND provider_event_id = $2)`

	var exists bool
	if err := a.tx.QueryRowContext(ctx, query, provider, providerEventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking applied event: %w", err)
	}

	return exists, nil
}

func (a *applyTx) UpdateStatus(ctx context.Context, expectedVersion int64, upd payable.StatusUpdate) error {
	query := `
		UPDATE payable_records
		SET status = $1,
			provider_payment_id = COALESCE(provider_payment_id, $2),
			billing_cycle = $3,
			next_billing_at = $4,
			last_event_at = $5,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $6 AND version = $7
		RETURNING version, updated_at
	`

	var newVersion int64

	err := a.tx.QueryRowContext(ctx, query,
		upd.Status,
		nullString(upd.ProviderPaymentID),
		upd.BillingCycle,
		upd.NextBillingAt,
		upd.LastEventAt,
		a.rec.ID,
		expectedVersion,
	).Scan(&newVersion, &a.rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payable.ErrVersionConflict
		}

		if IsUniqueViolation(err, "payable_records_provider_payment_id_key") {
			return payable.ErrPaymentIDTaken
		}

		return fmt.Errorf("updating status: %w", err)
	}

	a.rec.Status = upd.Status
	if a.rec.ProviderPaymentID == nil && upd.ProviderPaymentID != "" {
		a.rec.ProviderPaymentID = new(upd.ProviderPaymentID)
	}

	a.rec.BillingCycle = upd.BillingCycle
	a.rec.NextBillingAt = upd.NextBillingAt
	a.rec.LastEventAt = upd.LastEventAt
	a.rec.Version = newVersion

	return nil
}

func (a *applyTx) AppendLedger(ctx context.Context, e *payable.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			record_id, provider, provider_event_id, provider_payment_id,
			amount, currency, outcome, occurred_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := a.tx.QueryRowContext(ctx, query,
		e.RecordID,
		e.Provider,
		e.ProviderEventID,
		e.ProviderPaymentID,
		e.Amount,
		e.Currency,
		e.Outcome,
		e.OccurredAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending ledger entry: %w", err)
	}

	return nil
}

func (a *applyTx) MarkEventApplied(ctx context.Context, provider event.Provider, providerEventID string) error {
	query := `
		INSERT INTO applied_events (provider, provider_event_id, record_id, applied_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := a.tx.ExecContext(ctx, query, provider, providerEventID, a.rec.ID); err != nil {
		if IsUniqueViolation(err, "") {
			return payable.ErrVersionConflict
		}

		return fmt.Errorf("marking event applied: %w", err)
	}

	return nil
}

func (a *applyTx) EnqueueIntents(ctx context.Context, intents []intent.Intent) error {
	query := `
		INSERT INTO intent_outbox (id, kind, record_id, template_name, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, in := range intents {
		if _, err := a.tx.ExecContext(ctx, query,
			in.ID, in.Kind, in.RecordID, nullString(in.TemplateName), nullString(in.Summary), in.CreatedAt,
		); err != nil {
			return fmt.Errorf("enqueuing intent %s: %w", in.Kind, err)
		}
	}

	return nil
}

func (a *applyTx) AppendAudit(ctx context.Context, e *payable.AuditEntry) error {
	query := `
		INSERT INTO admin_audit (record_id, actor, action, from_status, to_status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := a.tx.QueryRowContext(ctx, query,
		e.RecordID, e.Actor, e.Action,
		nullString(string(e.FromStatus)), nullString(string(e.ToStatus)),
		e.Reason, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}

	return nil
}

func (a *applyTx) LedgerCount(ctx context.Context) (int, error) {
	var n int
	if err := a.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE record_id = $1`, a.rec.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ledger entries: %w", err)
	}

	return n, nil
}

func (a *applyTx) Delete(ctx context.Context) error {
	if _, err := a.tx.ExecContext(ctx, `DELETE FROM intent_outbox WHERE record_id = $1 AND published_at IS NULL`, a.rec.ID); err != nil {
		return fmt.Errorf("deleting pending intents: %w", err)
	}

	if _, err := a.tx.ExecContext(ctx, `DELETE FROM payable_records WHERE id = $1`, a.rec.ID); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	return nil
}
