package reconcile

import (
	"fmt"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/intent"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/transition"
)

// customerIntents are the e-mails an applied decision triggers.
func customerIntents(rec *payable.Record, d transition.Decision) []intent.Intent {
	switch {
	case rec.Kind == payable.KindOrder && d.Status == payable.StatusCompleted && d.From != payable.StatusCompleted:
		return []intent.Intent{intent.SendConfirmationEmail(rec.ID, intent.TemplateOrderConfirmation)}
	case rec.Kind == payable.KindSubscription && d.Renewal:
		return []intent.Intent{intent.SendConfirmationEmail(rec.ID, intent.TemplateSubscriptionRenewal)}
	case rec.Kind == payable.KindSubscription && d.Status == payable.StatusActive && d.From == payable.StatusPending:
		return []intent.Intent{intent.SendConfirmationEmail(rec.ID, intent.TemplateSubscriptionWelcome)}
	default:
		return nil
	}
}

// intentsFor covers provider events: customer e-mails plus an admin notice
// whenever money comes back or a record is cancelled.
func intentsFor(rec *payable.Record, d transition.Decision, ev *event.Event) []intent.Intent {
	out := customerIntents(rec, d)

	if d.Status == payable.StatusCancelled && d.From != payable.StatusCancelled {
		what := "cancelled"
		if ev.Outcome == event.OutcomeRefunded {
			what = "refunded"
		}

		out = append(out, intent.NotifyAdmin(rec.ID, fmt.Sprintf(
			"%s %s %s by %s event %s (was %s)",
			rec.Kind, rec.ExternalReference, what, ev.Provider, ev.ProviderEventID, d.From,
		)))
	}

	return out
}
