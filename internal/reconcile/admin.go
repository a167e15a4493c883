package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

func validateAdmin(actor, reason string) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidRequest)
	}

	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidRequest)
	}

	return nil
}

// ForceTransition moves a record to target on an administrator's authority.
// The move is checked by the same transition rules as provider events and
// lands in the ledger when it moves money. Every applied override is audited.
func (s *Service) ForceTransition(
	ctx context.Context,
	recordID uuid.UUID,
	target payable.Status,
	actor, reason string,
) (*Result, error) {
	if err := validateAdmin(actor, reason); err != nil {
		return nil, err
	}

	atx, err := s.records.BeginApply(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer atx.Rollback()

	rec := atx.Record()

	outcome, err := transition.ForceOutcome(rec, target)
	if err != nil {
		return nil, err
	}

	ev := s.adminEvent(rec, outcome, actor)

	d, err := transition.Force(rec, target, ev)
	if err != nil {
		return nil, err
	}

	res := &Result{Event: ev, Record: rec, Decision: d}
	if d.Verdict != transition.Apply {
		return res, nil
	}

	audit := &payable.AuditEntry{
		RecordID:   rec.ID,
		Actor:      actor,
		Action:     payable.AuditForceTransition,
		FromStatus: d.From,
		ToStatus:   d.Status,
		Reason:     reason,
		CreatedAt:  ev.OccurredAt,
	}

	intents := append(customerIntents(rec, d), intent.NotifyAdmin(rec.ID, fmt.Sprintf(
		"%s forced %s %s from %s to %s: %s", actor, rec.Kind, rec.ExternalReference, d.From, d.Status, reason,
	)))

	if err := s.commitAdmin(ctx, atx, d, ev, audit, intents); err != nil {
		return nil, err
	}

	res.Intents = intents

	slog.Info("record transition forced",
		"record_id", rec.ID, "actor", actor, "from", d.From, "to", d.Status, "ledger", d.Ledger, "reason", reason)

	return res, nil
}

// Reactivate restarts a cancelled subscription. It is not a payment event,
// so it bypasses the ledger.
func (s *Service) Reactivate(ctx context.Context, recordID uuid.UUID, actor, reason string) (*Result, error) {
	if err := validateAdmin(actor, reason); err != nil {
		return nil, err
	}

	atx, err := s.records.BeginApply(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer atx.Rollback()

	rec := atx.Record()

	d, err := transition.Reactivate(rec, s.now().UTC())
	if err != nil {
		return nil, err
	}

	audit := &payable.AuditEntry{
		RecordID:   rec.ID,
		Actor:      actor,
		Action:     payable.AuditReactivate,
		FromStatus: d.From,
		ToStatus:   d.Status,
		Reason:     reason,
		CreatedAt:  s.now().UTC(),
	}

	intents := []intent.Intent{intent.NotifyAdmin(rec.ID, fmt.Sprintf(
		"%s reactivated subscription %s: %s", actor, rec.ExternalReference, reason,
	))}

	if err := s.commitAdmin(ctx, atx, d, nil, audit, intents); err != nil {
		return nil, err
	}

	slog.Info("subscription reactivated", "record_id", rec.ID, "actor", actor, "next_billing_at", d.NextBillingAt)

	return &Result{Record: rec, Decision: d, Intents: intents}, nil
}

func (s *Service) commitAdmin(
	ctx context.Context,
	atx payable.ApplyTx,
	d transition.Decision,
	ev *event.Event,
	audit *payable.AuditEntry,
	intents []intent.Intent,
) error {
	if err := s.write(ctx, atx, d, ev, audit, intents); err != nil {
		return err
	}

	if err := atx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, in := range intents {
		s.metrics.IncIntent(string(in.Kind))
	}

	return nil
}

// adminEvent is the synthetic event an override is evaluated with. It never
// predates the record's last event, so overrides are not treated as stale.
func (s *Service) adminEvent(rec *payable.Record, outcome event.Outcome, actor string) *event.Event {
	at := s.now().UTC()
	if rec.LastEventAt != nil && rec.LastEventAt.After(at) {
		at = *rec.LastEventAt
	}

	return &event.Event{
		Provider:          event.ProviderAdmin,
		ProviderEventID:   "admin-" + uuid.NewString(),
		ProviderPaymentID: rec.PaymentID(),
		ExternalReference: rec.ExternalReference,
		RawStatus:         "forced",
		Outcome:           outcome,
		Amount:            rec.Amount,
		Currency:          rec.Currency,
		OccurredAt:        at,
		Actor:             actor,
	}
}
