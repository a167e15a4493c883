package transition

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

// ForceOutcome picks the synthetic outcome that moves rec to target.
func ForceOutcome(rec *payable.Record, target payable.Status) (event.Outcome, error) {
	if !rec.Kind.Allows(target) {
		return "", fmt.Errorf("%w: %s records have no %s state", ErrIllegalTransition, rec.Kind, target)
	}

	switch target {
	case payable.StatusCompleted, payable.StatusActive:
		return event.OutcomeApproved, nil
	case payable.StatusProcessing:
		return event.OutcomePending, nil
	case payable.StatusCancelled:
		if rec.Kind == payable.KindOrder && rec.Status == payable.StatusCompleted {
			return event.OutcomeRefunded, nil
		}

		return event.OutcomeCancelled, nil
	default:
		return "", fmt.Errorf("%w: cannot force %s", ErrIllegalTransition, target)
	}
}

// Force evaluates an administrative move of rec to target. It goes through
// the same rules as provider events and must land exactly on target.
func Force(rec *payable.Record, target payable.Status, ev *event.Event) (Decision, error) {
	if rec.Status == target {
		return noop(rec, "record already "+string(target)), nil
	}

	d := Next(rec, ev, false)
	if d.Verdict != Apply || d.Status != target {
		return d, fmt.Errorf("%w: %s %s to %s: %s", ErrIllegalTransition, rec.Kind, rec.Status, target, d.Reason)
	}

	return d, nil
}

// Reactivate restarts billing on a cancelled subscription. It is not a
// payment event and moves no money.
func Reactivate(rec *payable.Record, at time.Time) (Decision, error) {
	if rec.Kind != payable.KindSubscription || rec.Status != payable.StatusCancelled {
		return illegal(rec, "only cancelled subscriptions can be reactivated"),
			fmt.Errorf("%w: reactivate %s %s", ErrIllegalTransition, rec.Kind, rec.Status)
	}

	next := rec.BillingInterval.Advance(at)

	return Decision{
		Verdict:       Apply,
		From:          rec.Status,
		Status:        payable.StatusActive,
		BillingCycle:  rec.BillingCycle,
		NextBillingAt: &next,
		LastEventAt:   latest(rec.LastEventAt, at),
		Reason:        "reactivated",
	}, nil
}
