// Package transition decides how a payment event moves a payable record.
// Everything here is pure: no I/O, no clock.
package transition

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

var ErrIllegalTransition = errors.New("illegal transition")

type Verdict int

const (
	Apply Verdict = iota + 1
	NoOp
	Illegal
)

func (v Verdict) String() string {
	switch v {
	case Apply:
		return "applied"
	case NoOp:
		return "noop"
	case Illegal:
		return "illegal"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating one event against one record.
// For Apply it carries the complete post-transition state.
type Decision struct {
	Verdict       Verdict
	From          payable.Status
	Status        payable.Status
	BillingCycle  int
	NextBillingAt *time.Time
	LastEventAt   *time.Time
	Ledger        bool
	Renewal       bool
	Reason        string
}

func noop(rec *payable.Record, reason string) Decision {
	return Decision{Verdict: NoOp, From: rec.Status, Status: rec.Status, Reason: reason}
}

func illegal(rec *payable.Record, reason string) Decision {
	return Decision{Verdict: Illegal, From: rec.Status, Status: rec.Status, Reason: reason}
}

// Next evaluates ev against rec. duplicate reports whether the event id was
// already applied.
func Next(rec *payable.Record, ev *event.Event, duplicate bool) Decision {
	if duplicate {
		return noop(rec, "event already applied")
	}

	// Out-of-order deliveries never regress a record. A late recurring
	// charge is still a charge and is counted.
	stale := rec.LastEventAt != nil && ev.OccurredAt.Before(*rec.LastEventAt)
	if stale && !recurring(rec, ev) {
		return noop(rec, fmt.Sprintf("stale %s event", ev.Outcome))
	}

	var d Decision

	switch rec.Kind {
	case payable.KindOrder:
		d = nextOrder(rec, ev.Outcome)
	case payable.KindSubscription:
		d = nextSubscription(rec, ev)
	default:
		return illegal(rec, fmt.Sprintf("unknown record kind %q", rec.Kind))
	}

	if d.Verdict != Apply {
		return d
	}

	d.From = rec.Status
	d.LastEventAt = latest(rec.LastEventAt, ev.OccurredAt)

	if !d.Renewal && rec.Kind == payable.KindSubscription && d.Status != payable.StatusActive {
		d.BillingCycle = rec.BillingCycle
		d.NextBillingAt = rec.NextBillingAt
	}

	return d
}

func recurring(rec *payable.Record, ev *event.Event) bool {
	return rec.Kind == payable.KindSubscription &&
		rec.Status == payable.StatusActive &&
		ev.Outcome == event.OutcomeApproved
}

func nextOrder(rec *payable.Record, o event.Outcome) Decision {
	to := func(s payable.Status, ledger bool) Decision {
		return Decision{Verdict: Apply, Status: s, Ledger: ledger}
	}

	switch rec.Status {
	case payable.StatusPending:
		switch o {
		case event.OutcomeApproved:
			return to(payable.StatusCompleted, true)
		case event.OutcomePending:
			return to(payable.StatusProcessing, false)
		case event.OutcomeRejected, event.OutcomeCancelled:
			return to(payable.StatusCancelled, false)
		}
	case payable.StatusProcessing:
		switch o {
		case event.OutcomeApproved:
			return to(payable.StatusCompleted, true)
		case event.OutcomePending:
			return noop(rec, "payment still in process")
		case event.OutcomeRejected, event.OutcomeCancelled:
			return to(payable.StatusCancelled, false)
		}
	case payable.StatusCompleted:
		switch o {
		case event.OutcomeApproved:
			return noop(rec, "order already paid")
		case event.OutcomeRefunded:
			return to(payable.StatusCancelled, true)
		}
	case payable.StatusCancelled:
		if o == event.OutcomeRejected || o == event.OutcomeCancelled {
			return noop(rec, "order already cancelled")
		}
	}

	return illegal(rec, fmt.Sprintf("order %s cannot take %s", rec.Status, o))
}

func nextSubscription(rec *payable.Record, ev *event.Event) Decision {
	switch rec.Status {
	case payable.StatusPending:
		switch ev.Outcome {
		case event.OutcomeApproved:
			next := rec.BillingInterval.Advance(ev.OccurredAt)
			return Decision{Verdict: Apply, Status: payable.StatusActive, BillingCycle: 1, NextBillingAt: &next, Ledger: true}
		case event.OutcomePending:
			return noop(rec, "subscription payment still pending")
		case event.OutcomeRejected, event.OutcomeCancelled:
			return Decision{Verdict: Apply, Status: payable.StatusCancelled}
		}
	case payable.StatusActive:
		switch ev.Outcome {
		case event.OutcomeApproved:
			return renew(rec, ev.OccurredAt)
		case event.OutcomeRejected, event.OutcomeCancelled:
			return Decision{Verdict: Apply, Status: payable.StatusCancelled}
		case event.OutcomeRefunded:
			return Decision{Verdict: Apply, Status: payable.StatusCancelled, Ledger: true}
		}
	case payable.StatusCancelled:
		if ev.Outcome == event.OutcomeRejected || ev.Outcome == event.OutcomeCancelled {
			return noop(rec, "subscription already cancelled")
		}
	}

	return illegal(rec, fmt.Sprintf("subscription %s cannot take %s", rec.Status, ev.Outcome))
}

// renew advances the billing cycle. The next billing date only moves forward.
func renew(rec *payable.Record, at time.Time) Decision {
	base := at
	if rec.NextBillingAt != nil {
		base = *rec.NextBillingAt
	}

	next := rec.BillingInterval.Advance(base)
	if !next.After(at) {
		next = rec.BillingInterval.Advance(at)
	}

	return Decision{
		Verdict:       Apply,
		Status:        payable.StatusActive,
		BillingCycle:  rec.BillingCycle + 1,
		NextBillingAt: &next,
		Ledger:        true,
		Renewal:       true,
	}
}

func latest(prev *time.Time, at time.Time) *time.Time {
	if prev != nil && prev.After(at) {
		return new(*prev)
	}

	return new(at)
}
