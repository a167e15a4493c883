package stripe

import (
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v74"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

//go:embed statuses.yaml
var statusesYAML []byte

// Statuses maps Stripe event types to outcomes.
var Statuses = event.MustLoadStatusMap(event.ProviderStripe, statusesYAML)

// MetadataReference is the metadata key the storefront sets on checkout sessions
// and subscriptions.
const MetadataReference = "external_reference"

type Normalizer struct {
	statuses *event.StatusMap
}

func NewNormalizer() *Normalizer {
	return &Normalizer{statuses: Statuses}
}

func (n *Normalizer) Normalize(payload []byte) (*event.Event, error) {
	var evt stripego.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, event.Malformed(event.ProviderStripe, "decoding payload: %v", err)
	}

	if evt.ID == "" {
		return nil, event.Malformed(event.ProviderStripe, "missing event id")
	}

	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, event.Malformed(event.ProviderStripe, "missing event object")
	}

	ev := &event.Event{
		Provider:        event.ProviderStripe,
		ProviderEventID: evt.ID,
		RawStatus:       string(evt.Type),
		OccurredAt:      time.Unix(evt.Created, 0).UTC(),
	}

	outcome, err := n.statuses.Outcome(ev.RawStatus)
	if err != nil {
		return ev, err
	}

	ev.Outcome = outcome

	switch {
	case strings.HasPrefix(ev.RawStatus, "invoice."):
		err = fromInvoice(ev, evt.Data.Raw)
	case strings.HasPrefix(ev.RawStatus, "customer.subscription."):
		err = fromSubscription(ev, evt.Data.Raw)
	case strings.HasPrefix(ev.RawStatus, "charge."):
		err = fromCharge(ev, evt.Data.Raw)
	}

	if err != nil {
		return nil, event.Malformed(event.ProviderStripe, "decoding %s object: %v", ev.RawStatus, err)
	}

	if ev.ProviderPaymentID == "" {
		return nil, event.Malformed(event.ProviderStripe, "no payment identifier on %s", ev.RawStatus)
	}

	return ev, nil
}

// fromInvoice keys renewals by subscription so every cycle lands on the same record.
func fromInvoice(ev *event.Event, raw json.RawMessage) error {
	var inv stripego.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return err
	}

	switch {
	case inv.Subscription != nil && inv.Subscription.ID != "":
		ev.ProviderPaymentID = inv.Subscription.ID
		ev.ExternalReference = inv.Subscription.Metadata[MetadataReference]
	case inv.PaymentIntent != nil && inv.PaymentIntent.ID != "":
		ev.ProviderPaymentID = inv.PaymentIntent.ID
	}

	if ref := inv.Metadata[MetadataReference]; ref != "" {
		ev.ExternalReference = ref
	}

	// invoice.paid and invoice.payment_succeeded announce the same charge.
	// An invoice is paid once, so approvals dedupe on the invoice.
	if ev.Outcome == event.OutcomeApproved && inv.ID != "" {
		ev.ProviderEventID = inv.ID
	}

	ev.InvoiceID = inv.ID

	amount := inv.AmountPaid
	if ev.Outcome != event.OutcomeApproved {
		amount = inv.AmountDue
	}

	ev.Amount = minorUnits(amount)
	ev.Currency = strings.ToUpper(string(inv.Currency))

	return nil
}

func fromSubscription(ev *event.Event, raw json.RawMessage) error {
	var sub stripego.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return err
	}

	ev.ProviderPaymentID = sub.ID
	ev.ExternalReference = sub.Metadata[MetadataReference]
	ev.Currency = strings.ToUpper(string(sub.Currency))

	return nil
}

func fromCharge(ev *event.Event, raw json.RawMessage) error {
	var ch stripego.Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return err
	}

	ev.ProviderPaymentID = ch.ID
	if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
		ev.ProviderPaymentID = ch.PaymentIntent.ID
	}

	ev.ExternalReference = ch.Metadata[MetadataReference]

	// Subscription charges carry no metadata of their own. The invoice leads
	// to the subscription, either expanded here or through the read API.
	if inv := ch.Invoice; inv != nil && inv.ID != "" {
		ev.InvoiceID = inv.ID

		if inv.Subscription != nil && inv.Subscription.ID != "" {
			ev.ProviderPaymentID = inv.Subscription.ID
			if ref := inv.Subscription.Metadata[MetadataReference]; ref != "" && ev.ExternalReference == "" {
				ev.ExternalReference = ref
			}
		}
	}

	ev.Amount = minorUnits(ch.AmountRefunded)
	ev.Currency = strings.ToUpper(string(ch.Currency))

	return nil
}

func minorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}
