package event_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

func TestLoadStatusMap(t *testing.T) {
	doc := []byte(`
statuses:
  approved: approved
  In_Process: pending
  charged_back: refunded
`)

	m, err := event.LoadStatusMap(event.ProviderMercadoPago, doc)
	require.NoError(t, err)

	got, err := m.Outcome("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, event.OutcomeApproved, got)

	got, err = m.Outcome("in_process")
	require.NoError(t, err)
	assert.Equal(t, event.OutcomePending, got)

	got, err = m.Outcome(" charged_back ")
	require.NoError(t, err)
	assert.Equal(t, event.OutcomeRefunded, got)
}

func TestStatusMap_UnknownStatus(t *testing.T) {
	m := event.MustLoadStatusMap(event.ProviderStripe, []byte("statuses:\n  invoice.paid: approved\n"))

	_, err := m.Outcome("invoice.voided")

	var unknown *event.UnknownStatusError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, event.ProviderStripe, unknown.Provider)
	assert.Equal(t, "invoice.voided", unknown.Status)
}

func TestLoadStatusMap_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "Empty", doc: "statuses: {}\n"},
		{name: "BadOutcome", doc: "statuses:\n  approved: paid\n"},
		{name: "NotYAML", doc: "statuses: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := event.LoadStatusMap(event.ProviderMercadoPago, []byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseOutcome(t *testing.T) {
	o, err := event.ParseOutcome(" Refunded")
	require.NoError(t, err)
	assert.Equal(t, event.OutcomeRefunded, o)
	assert.True(t, o.Moves())
	assert.False(t, event.OutcomePending.Moves())

	_, err = event.ParseOutcome("settled")
	assert.Error(t, err)
}
