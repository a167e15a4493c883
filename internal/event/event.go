package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifies the origin of a payment event.
type Provider string

const (
	ProviderMercadoPago Provider = "mercadopago"
	ProviderStripe      Provider = "stripe"
	// ProviderAdmin marks synthetic events produced by administrative overrides.
	ProviderAdmin Provider = "admin"
)

// Outcome is the provider-independent result of a payment attempt.
type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomePending   Outcome = "pending"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeRefunded  Outcome = "refunded"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeApproved, OutcomePending, OutcomeRejected, OutcomeCancelled, OutcomeRefunded:
		return o, nil
	default:
		return "", fmt.Errorf("invalid outcome %q", s)
	}
}

// Moves reports whether the outcome moves money and therefore lands in the ledger.
func (o Outcome) Moves() bool {
	return o == OutcomeApproved || o == OutcomeRefunded
}

// Event is the canonical, provider-independent payment event.
type Event struct {
	Provider          Provider
	ProviderEventID   string
	ProviderPaymentID string
	ExternalReference string
	MerchantOrderID   string
	// InvoiceID is the billing invoice behind a charge, when there is one.
	InvoiceID         string
	RawStatus         string
	Outcome           Outcome
	Amount            decimal.Decimal
	Currency          string
	OccurredAt        time.Time
	Actor             string
}

// Key is the deduplication key of the event.
func (e *Event) Key() string {
	return string(e.Provider) + ":" + e.ProviderEventID
}
