package mercadopago

import (
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

//go:embed statuses.yaml
var statusesYAML []byte

// Statuses is the Mercado Pago payment status table.
var Statuses = event.MustLoadStatusMap(event.ProviderMercadoPago, statusesYAML)

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*f = flexID(n.String())

	return nil
}

type notification struct {
	ID          flexID     `json:"id"`
	Action      string     `json:"action"`
	DateCreated *time.Time `json:"date_created"`
	Data        payment    `json:"data"`
}

type payment struct {
	ID                flexID          `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	DateLastUpdated   *time.Time      `json:"date_last_updated"`
	Order             struct {
		ID flexID `json:"id"`
	} `json:"order"`
}

type Normalizer struct {
	statuses *event.StatusMap
	now      func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{statuses: Statuses, now: time.Now}
}

func (n *Normalizer) Normalize(payload []byte) (*event.Event, error) {
	var msg notification
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, event.Malformed(event.ProviderMercadoPago, "decoding payload: %v", err)
	}

	if msg.ID == "" {
		return nil, event.Malformed(event.ProviderMercadoPago, "missing notification id")
	}

	if msg.Data.ID == "" {
		return nil, event.Malformed(event.ProviderMercadoPago, "missing payment id")
	}

	ev := &event.Event{
		Provider:          event.ProviderMercadoPago,
		ProviderEventID:   string(msg.ID),
		ProviderPaymentID: string(msg.Data.ID),
		ExternalReference: strings.TrimSpace(msg.Data.ExternalReference),
		MerchantOrderID:   string(msg.Data.Order.ID),
		RawStatus:         msg.Data.Status,
		Amount:            msg.Data.TransactionAmount,
		Currency:          strings.ToUpper(msg.Data.CurrencyID),
		OccurredAt:        n.occurredAt(msg),
	}

	outcome, err := n.statuses.Outcome(msg.Data.Status)
	if err != nil {
		return ev, err
	}

	ev.Outcome = outcome

	return ev, nil
}

func (n *Normalizer) occurredAt(msg notification) time.Time {
	switch {
	case msg.Data.DateLastUpdated != nil:
		return msg.Data.DateLastUpdated.UTC()
	case msg.DateCreated != nil:
		return msg.DateCreated.UTC()
	default:
		return n.now().UTC()
	}
}
