package stripe_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v74"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/stripe"
)

func invoiceEvent(id, typ string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": %q,
		"created": 1772359200,
		"data": {"object": {
			"id": "in_1",
			"object": "invoice",
			"subscription": "sub_1",
			"payment_intent": "pi_1",
			"amount_paid": 89900,
			"amount_due": 89900,
			"currency": "mxn",
			"metadata": {"external_reference": "SUB-ref-1"}
		}}
	}`, id, typ)
}

func TestNormalizer_Invoice(t *testing.T) {
	ev, err := stripe.NewNormalizer().Normalize([]byte(invoiceEvent("evt_1", "invoice.paid")))
	require.NoError(t, err)

	assert.Equal(t, event.ProviderStripe, ev.Provider)
	assert.Equal(t, "in_1", ev.ProviderEventID)
	assert.Equal(t, "sub_1", ev.ProviderPaymentID)
	assert.Equal(t, "in_1", ev.InvoiceID)
	assert.Equal(t, "SUB-ref-1", ev.ExternalReference)
	assert.Equal(t, event.OutcomeApproved, ev.Outcome)
	assert.True(t, decimal.RequireFromString("899").Equal(ev.Amount))
	assert.Equal(t, "MXN", ev.Currency)
	assert.Equal(t, time.Unix(1772359200, 0).UTC(), ev.OccurredAt)
}

func TestNormalizer_Failed(t *testing.T) {
	ev, err := stripe.NewNormalizer().Normalize([]byte(invoiceEvent("evt_2", "invoice.payment_failed")))
	require.NoError(t, err)
	assert.Equal(t, event.OutcomeRejected, ev.Outcome)
	// Payment attempts on one invoice can fail more than once.
	assert.Equal(t, "evt_2", ev.ProviderEventID)
}

func TestNormalizer_PaidInvoiceSharesKey(t *testing.T) {
	n := stripe.NewNormalizer()

	paid, err := n.Normalize([]byte(invoiceEvent("evt_a", "invoice.paid")))
	require.NoError(t, err)

	succeeded, err := n.Normalize([]byte(invoiceEvent("evt_b", "invoice.payment_succeeded")))
	require.NoError(t, err)

	assert.Equal(t, event.OutcomeApproved, succeeded.Outcome)
	assert.Equal(t, paid.Key(), succeeded.Key())
	assert.Equal(t, "stripe:in_1", paid.Key())
}

func TestNormalizer_SubscriptionDeleted(t *testing.T) {
	payload := `{"id":"evt_3","type":"customer.subscription.deleted","created":1772359200,
		"data":{"object":{"id":"sub_1","object":"subscription","currency":"mxn","metadata":{}}}}`

	ev, err := stripe.NewNormalizer().Normalize([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "sub_1", ev.ProviderPaymentID)
	assert.Empty(t, ev.ExternalReference)
	assert.Equal(t, event.OutcomeCancelled, ev.Outcome)
}

func TestNormalizer_ChargeRefunded(t *testing.T) {
	payload := `{"id":"evt_4","type":"charge.refunded","created":1772359200,
		"data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_9","amount_refunded":5000,"currency":"mxn",
		"metadata":{"external_reference":"ORDER-ref"}}}}`

	ev, err := stripe.NewNormalizer().Normalize([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "pi_9", ev.ProviderPaymentID)
	assert.Equal(t, "ORDER-ref", ev.ExternalReference)
	assert.Equal(t, event.OutcomeRefunded, ev.Outcome)
	assert.True(t, decimal.NewFromInt(50).Equal(ev.Amount))
}

func TestNormalizer_SubscriptionChargeRefunded(t *testing.T) {
	tests := []struct {
		name      string
		invoice   string
		wantPayID string
		wantRef   string
	}{
		{name: "InvoiceID", invoice: `"in_7"`, wantPayID: "pi_7"},
		{
			name:      "ExpandedInvoice",
			invoice:   `{"id":"in_7","object":"invoice","subscription":{"id":"sub_7","object":"subscription","metadata":{"external_reference":"SUB-ref-7"}}}`,
			wantPayID: "sub_7",
			wantRef:   "SUB-ref-7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := fmt.Sprintf(`{"id":"evt_5","type":"charge.refunded","created":1772359200,
				"data":{"object":{"id":"ch_7","object":"charge","payment_intent":"pi_7","invoice":%s,
				"amount_refunded":89900,"currency":"mxn","metadata":{}}}}`, tt.invoice)

			ev, err := stripe.NewNormalizer().Normalize([]byte(payload))
			require.NoError(t, err)
			assert.Equal(t, event.OutcomeRefunded, ev.Outcome)
			assert.Equal(t, "in_7", ev.InvoiceID)
			assert.Equal(t, tt.wantPayID, ev.ProviderPaymentID)
			assert.Equal(t, tt.wantRef, ev.ExternalReference)
		})
	}
}

func TestNormalizer_Errors(t *testing.T) {
	n := stripe.NewNormalizer()

	_, err := n.Normalize([]byte(`nope`))

	var malformed *event.MalformedEventError
	assert.True(t, errors.As(err, &malformed))

	_, err = n.Normalize([]byte(`{"type":"invoice.paid","data":{"object":{"id":"in_1"}}}`))
	assert.True(t, errors.As(err, &malformed))

	ev, err := n.Normalize([]byte(`{"id":"evt_9","type":"customer.created","data":{"object":{"id":"cus_1"}}}`))

	var unknown *event.UnknownStatusError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "customer.created", unknown.Status)
	require.NotNil(t, ev)
	assert.Equal(t, "evt_9", ev.ProviderEventID)
}

func sign(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)

	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifier_Verify(t *testing.T) {
	payload := []byte(invoiceEvent("evt_1", "invoice.paid"))
	now := time.Now().Unix()

	tests := []struct {
		name    string
		secret  string
		sig     string
		wantErr bool
	}{
		{name: "Valid", secret: "whsec_1", sig: sign("whsec_1", now, payload)},
		{name: "WrongSecret", secret: "whsec_1", sig: sign("whsec_2", now, payload), wantErr: true},
		{name: "Expired", secret: "whsec_1", sig: sign("whsec_1", now-3600, payload), wantErr: true},
		{name: "Missing", secret: "whsec_1", wantErr: true},
		{name: "NoSecret", sig: sign("", now, payload), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.sig != "" {
				h.Set(stripe.HeaderSignature, tt.sig)
			}

			err := stripe.NewVerifier(tt.secret).Verify(payload, h, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, provider.ErrInvalidSignature)
				return
			}

			assert.NoError(t, err)
		})
	}
}

type fakeSubscriptions struct {
	subs map[string]*stripego.Subscription
	err  error
}

func (f *fakeSubscriptions) Get(id string, _ *stripego.SubscriptionParams) (*stripego.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}

	sub, ok := f.subs[id]
	if !ok {
		return nil, &stripego.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such subscription"}
	}

	return sub, nil
}

type fakeInvoices struct {
	invoices map[string]*stripego.Invoice
	expand   []*string
}

func (f *fakeInvoices) Get(id string, params *stripego.InvoiceParams) (*stripego.Invoice, error) {
	f.expand = params.Expand

	inv, ok := f.invoices[id]
	if !ok {
		return nil, &stripego.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such invoice"}
	}

	return inv, nil
}

func TestClient_ResolveReference(t *testing.T) {
	subs := &fakeSubscriptions{subs: map[string]*stripego.Subscription{
		"sub_1": {ID: "sub_1", Metadata: map[string]string{"external_reference": "SUB-ref-1"}},
		"sub_2": {ID: "sub_2"},
	}}
	c := stripe.NewClient(subs, nil)
	ctx := context.Background()

	ref, err := c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, "SUB-ref-1", ref)

	_, err = c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "sub_2"})
	assert.ErrorIs(t, err, provider.ErrNotFound)

	_, err = c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "sub_404"})
	assert.ErrorIs(t, err, provider.ErrNotFound)

	_, err = c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "pi_1"})
	assert.ErrorIs(t, err, provider.ErrNoIndirection)

	c = stripe.NewClient(&fakeSubscriptions{err: &stripego.Error{HTTPStatusCode: http.StatusTooManyRequests, Msg: "slow down"}}, nil)
	_, err = c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "sub_1"})
	assert.True(t, provider.IsTransient(err))
}

func TestClient_ResolveThroughInvoice(t *testing.T) {
	subs := &fakeSubscriptions{subs: map[string]*stripego.Subscription{
		"sub_1": {ID: "sub_1", Metadata: map[string]string{"external_reference": "SUB-ref-1"}},
	}}
	invoices := &fakeInvoices{invoices: map[string]*stripego.Invoice{
		"in_expanded": {ID: "in_expanded", Subscription: &stripego.Subscription{
			ID: "sub_1", Metadata: map[string]string{"external_reference": "SUB-ref-1"},
		}},
		"in_collapsed": {ID: "in_collapsed", Subscription: &stripego.Subscription{ID: "sub_1"}},
		"in_tagged":    {ID: "in_tagged", Metadata: map[string]string{"external_reference": "SUB-ref-9"}},
		"in_oneoff":    {ID: "in_oneoff"},
	}}
	c := stripe.NewClient(subs, invoices)
	ctx := context.Background()

	tests := []struct {
		name    string
		invoice string
		want    string
		wantErr error
	}{
		{name: "ExpandedSubscription", invoice: "in_expanded", want: "SUB-ref-1"},
		{name: "SubscriptionLookup", invoice: "in_collapsed", want: "SUB-ref-1"},
		{name: "InvoiceMetadata", invoice: "in_tagged", want: "SUB-ref-9"},
		{name: "NoSubscription", invoice: "in_oneoff", wantErr: provider.ErrNoIndirection},
		{name: "MissingInvoice", invoice: "in_404", wantErr: provider.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := c.ResolveReference(ctx, &event.Event{ProviderPaymentID: "pi_1", InvoiceID: tt.invoice})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
			assert.Equal(t, []*string{stripego.String("subscription")}, invoices.expand)
		})
	}
}
