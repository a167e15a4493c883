package testutil

import (
	"encoding/json"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

// Payload encodes ev in the format Normalizer reads back.
func Payload(ev *event.Event) []byte {
	b, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}

	return b
}

// Normalizer decodes payloads built with Payload. It mirrors the contract of
// the real provider normalizers: missing ids are malformed, and an outcome it
// does not know is reported with the event still attached.
type Normalizer struct{}

func (Normalizer) Normalize(p event.Provider, payload []byte) (*event.Event, error) {
	var ev event.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, event.Malformed(p, "decoding payload: %v", err)
	}

	ev.Provider = p

	if ev.ProviderEventID == "" {
		return nil, event.Malformed(p, "missing event id")
	}

	if ev.ProviderPaymentID == "" {
		return nil, event.Malformed(p, "missing payment id")
	}

	if _, err := event.ParseOutcome(string(ev.Outcome)); err != nil {
		return &ev, &event.UnknownStatusError{Provider: p, Status: ev.RawStatus}
	}

	return &ev, nil
}
