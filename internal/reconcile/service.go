package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	"github.com/MrJamesThe3rd/payrecon/internal/metrics"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

const defaultDedupSize = 4096

type Service struct {
	normalizer Normalizer
	locator    Locator
	records    Records
	letters    DeadLetters
	metrics    *metrics.Metrics
	applied    *lru.Cache[string, struct{}]
	now        func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDedupCacheSize sizes the in-process cache of recently applied event
// keys. Zero or less disables it.
func WithDedupCacheSize(size int) Option {
	return func(s *Service) {
		if size <= 0 {
			s.applied = nil
			return
		}

		cache, err := lru.New[string, struct{}](size)
		if err != nil {
			slog.Error("dedup cache disabled", "size", size, "error", err)
			s.applied = nil

			return
		}

		s.applied = cache
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(normalizer Normalizer, locator Locator, records Records, letters DeadLetters, opts ...Option) *Service {
	s := &Service{
		normalizer: normalizer,
		locator:    locator,
		records:    records,
		letters:    letters,
		now:        time.Now,
	}

	WithDedupCacheSize(defaultDedupSize)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// parked describes why an event has to wait in the dead-letter store.
type parked struct {
	event     *event.Event
	reason    deadletter.Reason
	retryable bool
	err       error
}

// Reconcile applies one raw provider payload. When the event is
// dead-lettered the returned Result carries the letter and the error
// explains why; callers should treat that as durably recorded. Any other
// error means nothing was recorded.
func (s *Service) Reconcile(ctx context.Context, p event.Provider, payload []byte) (*Result, error) {
	start := s.now()

	res, park, err := s.run(ctx, p, payload)
	if err != nil {
		s.metrics.ObserveEvent(string(p), "error", s.now().Sub(start))
		return nil, err
	}

	if park != nil {
		letter, err := s.letters.Append(ctx, deadletter.AppendParams{
			Provider:        p,
			ProviderEventID: park.event.ProviderEventID,
			Payload:         payload,
			Reason:          park.reason,
			Retryable:       park.retryable,
			Err:             park.err,
		})
		if err != nil {
			s.metrics.ObserveEvent(string(p), "error", s.now().Sub(start))
			return nil, fmt.Errorf("dead-lettering %s: %w", park.event.Key(), err)
		}

		s.metrics.IncDeadLetter(string(p), string(park.reason))
		s.metrics.ObserveEvent(string(p), "dead_lettered", s.now().Sub(start))

		slog.Warn("event dead-lettered",
			"provider", p, "event_id", park.event.ProviderEventID,
			"reason", park.reason, "retryable", park.retryable, "letter_id", letter.ID, "error", park.err)

		return &Result{Event: park.event, DeadLetter: letter}, park.err
	}

	s.metrics.ObserveEvent(string(p), res.Decision.Verdict.String(), s.now().Sub(start))

	return res, nil
}

func (s *Service) run(ctx context.Context, p event.Provider, payload []byte) (*Result, *parked, error) {
	ev, err := s.normalizer.Normalize(p, payload)
	if err != nil {
		var unknown *event.UnknownStatusError
		if errors.As(err, &unknown) && ev != nil && ev.ProviderEventID != "" {
			slog.Error("provider status has no mapping",
				"alert", "unknown_status", "provider", p, "status", unknown.Status, "event_id", ev.ProviderEventID)

			return nil, &parked{event: ev, reason: deadletter.ReasonUnknownStatus, err: err}, nil
		}

		return nil, nil, err
	}

	if s.recentlyApplied(ev) {
		s.metrics.IncDedupHit()
		slog.Debug("event already applied", "provider", p, "event_id", ev.ProviderEventID)

		return &Result{Event: ev, Decision: transition.Decision{Verdict: transition.NoOp, Reason: "event already applied"}}, nil, nil
	}

	// The provider read API may be called here, before any lock is taken.
	match, err := s.locator.Locate(ctx, ev)
	if err != nil {
		park, err := classifyLocate(ev, err)
		return nil, park, err
	}

	res, err := s.applyWithRetry(ctx, match.Record.ID, ev)
	if err != nil {
		if errors.Is(err, payable.ErrPaymentIDTaken) {
			slog.Error("payment id already bound to another record",
				"severity", "critical", "provider", p, "event_id", ev.ProviderEventID,
				"payment_id", ev.ProviderPaymentID, "record_id", match.Record.ID)

			return nil, &parked{event: ev, reason: deadletter.ReasonAmbiguous, err: err}, nil
		}

		return nil, nil, fmt.Errorf("applying %s: %w", ev.Key(), err)
	}

	res.Match = match

	return res, nil, nil
}

func classifyLocate(ev *event.Event, err error) (*parked, error) {
	var ambiguous *matching.AmbiguousMatchError

	switch {
	case errors.As(err, &ambiguous):
		slog.Error("ambiguous record match",
			"severity", "critical", "provider", ev.Provider, "event_id", ev.ProviderEventID,
			"tier", ambiguous.Tier.String(), "key", ambiguous.Key, "records", ambiguous.RecordIDs)

		return &parked{event: ev, reason: deadletter.ReasonAmbiguous, err: err}, nil
	case errors.Is(err, matching.ErrNotFound), errors.Is(err, matching.ErrLookupFailed):
		return &parked{
			event:     ev,
			reason:    deadletter.ReasonUnresolved,
			retryable: true,
			err:       &UnresolvedEventError{Provider: ev.Provider, ProviderEventID: ev.ProviderEventID, Err: err},
		}, nil
	default:
		return nil, fmt.Errorf("locating record for %s: %w", ev.Key(), err)
	}
}

// applyWithRetry re-runs the apply once on a version conflict so the loser of
// a race evaluates against the winner's state.
func (s *Service) applyWithRetry(ctx context.Context, recordID uuid.UUID, ev *event.Event) (*Result, error) {
	res, err := s.apply(ctx, recordID, ev)
	if errors.Is(err, payable.ErrVersionConflict) {
		slog.Debug("version conflict, re-reading record", "record_id", recordID, "event_id", ev.ProviderEventID)
		res, err = s.apply(ctx, recordID, ev)
	}

	return res, err
}

func (s *Service) apply(ctx context.Context, recordID uuid.UUID, ev *event.Event) (*Result, error) {
	atx, err := s.records.BeginApply(ctx, recordID)
	if err != nil {
		return nil, err
	}
	defer atx.Rollback()

	rec := atx.Record()

	duplicate, err := atx.HasEvent(ctx, ev.Provider, ev.ProviderEventID)
	if err != nil {
		return nil, err
	}

	d := transition.Next(rec, ev, duplicate)
	res := &Result{Event: ev, Record: rec, Decision: d}

	if d.Verdict == transition.Illegal {
		slog.Info("illegal transition ignored",
			"record_id", rec.ID, "event_id", ev.ProviderEventID, "status", rec.Status, "outcome", ev.Outcome, "reason", d.Reason)

		return res, nil
	}

	if d.Verdict != transition.Apply {
		if duplicate {
			s.remember(ev)
		}

		slog.Debug("event is a no-op", "record_id", rec.ID, "event_id", ev.ProviderEventID, "reason", d.Reason)

		return res, nil
	}

	intents := intentsFor(rec, d, ev)

	if err := s.write(ctx, atx, d, ev, nil, intents); err != nil {
		return nil, err
	}

	if err := atx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.remember(ev)

	for _, in := range intents {
		s.metrics.IncIntent(string(in.Kind))
	}

	res.Intents = intents

	slog.Info("event applied",
		"record_id", rec.ID, "provider", ev.Provider, "event_id", ev.ProviderEventID,
		"from", d.From, "to", d.Status, "billing_cycle", d.BillingCycle, "ledger", d.Ledger)

	return res, nil
}

// write performs every mutation of an applied decision inside atx.
func (s *Service) write(
	ctx context.Context,
	atx payable.ApplyTx,
	d transition.Decision,
	ev *event.Event,
	audit *payable.AuditEntry,
	intents []intent.Intent,
) error {
	rec := atx.Record()

	upd := payable.StatusUpdate{
		Status:        d.Status,
		BillingCycle:  d.BillingCycle,
		NextBillingAt: d.NextBillingAt,
		LastEventAt:   d.LastEventAt,
	}

	if ev != nil && ev.Provider != event.ProviderAdmin {
		upd.ProviderPaymentID = ev.ProviderPaymentID
	}

	if err := atx.UpdateStatus(ctx, rec.Version, upd); err != nil {
		return err
	}

	if d.Ledger && ev != nil {
		if err := atx.AppendLedger(ctx, ledgerEntry(rec, ev)); err != nil {
			return err
		}
	}

	if ev != nil {
		if err := atx.MarkEventApplied(ctx, ev.Provider, ev.ProviderEventID); err != nil {
			return err
		}
	}

	if audit != nil {
		if err := atx.AppendAudit(ctx, audit); err != nil {
			return err
		}
	}

	if len(intents) > 0 {
		if err := atx.EnqueueIntents(ctx, intents); err != nil {
			return err
		}
	}

	return nil
}

func ledgerEntry(rec *payable.Record, ev *event.Event) *payable.LedgerEntry {
	amount, currency := ev.Amount, ev.Currency
	if amount.IsZero() {
		amount = rec.Amount
	}

	if currency == "" {
		currency = rec.Currency
	}

	paymentID := ev.ProviderPaymentID
	if paymentID == "" {
		paymentID = rec.PaymentID()
	}

	return &payable.LedgerEntry{
		RecordID:          rec.ID,
		Provider:          ev.Provider,
		ProviderEventID:   ev.ProviderEventID,
		ProviderPaymentID: paymentID,
		Amount:            amount,
		Currency:          currency,
		Outcome:           ev.Outcome,
		OccurredAt:        ev.OccurredAt,
	}
}

func (s *Service) recentlyApplied(ev *event.Event) bool {
	if s.applied == nil {
		return false
	}

	return s.applied.Contains(ev.Key())
}

func (s *Service) remember(ev *event.Event) {
	if s.applied != nil {
		s.applied.Add(ev.Key(), struct{}{})
	}
}
