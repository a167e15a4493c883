package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/invoice"
	"github.com/stripe/stripe-go/v74/subscription"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

// SubscriptionGetter is satisfied by subscription.Client.
type SubscriptionGetter interface {
	Get(id string, params *stripego.SubscriptionParams) (*stripego.Subscription, error)
}

// InvoiceGetter is satisfied by invoice.Client.
type InvoiceGetter interface {
	Get(id string, params *stripego.InvoiceParams) (*stripego.Invoice, error)
}

// Client resolves subscription metadata through the Stripe API.
type Client struct {
	subs     SubscriptionGetter
	invoices InvoiceGetter
}

func NewClient(subs SubscriptionGetter, invoices InvoiceGetter) *Client {
	return &Client{subs: subs, invoices: invoices}
}

// NewSubscriptionClient builds an API-backed getter. An empty baseURL uses
// the public Stripe endpoint.
func NewSubscriptionClient(secretKey, baseURL string) subscription.Client {
	return subscription.Client{B: apiBackend(baseURL), Key: secretKey}
}

func NewInvoiceClient(secretKey, baseURL string) invoice.Client {
	return invoice.Client{B: apiBackend(baseURL), Key: secretKey}
}

func apiBackend(baseURL string) stripego.Backend {
	if baseURL == "" {
		return stripego.GetBackend(stripego.APIBackend)
	}

	return stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL: stripego.String(baseURL),
	})
}

// ResolveReference reads the external reference from the subscription the
// event belongs to. Refund charges reach it through their invoice.
func (c *Client) ResolveReference(ctx context.Context, ev *event.Event) (string, error) {
	switch {
	case strings.HasPrefix(ev.ProviderPaymentID, "sub_"):
		return c.subscriptionReference(ctx, ev.ProviderPaymentID)
	case ev.InvoiceID != "" && c.invoices != nil:
		return c.invoiceReference(ctx, ev.InvoiceID)
	default:
		return "", provider.ErrNoIndirection
	}
}

func (c *Client) subscriptionReference(ctx context.Context, id string) (string, error) {
	params := &stripego.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.subs.Get(id, params)
	if err != nil {
		return "", mapError(err)
	}

	ref := sub.Metadata[MetadataReference]
	if ref == "" {
		return "", fmt.Errorf("subscription %s has no %s metadata: %w", sub.ID, MetadataReference, provider.ErrNotFound)
	}

	return ref, nil
}

func (c *Client) invoiceReference(ctx context.Context, id string) (string, error) {
	params := &stripego.InvoiceParams{}
	params.Context = ctx
	params.AddExpand("subscription")

	inv, err := c.invoices.Get(id, params)
	if err != nil {
		return "", mapError(err)
	}

	if ref := inv.Metadata[MetadataReference]; ref != "" {
		return ref, nil
	}

	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return "", fmt.Errorf("invoice %s has no subscription: %w", inv.ID, provider.ErrNoIndirection)
	}

	if ref := inv.Subscription.Metadata[MetadataReference]; ref != "" {
		return ref, nil
	}

	return c.subscriptionReference(ctx, inv.Subscription.ID)
}

func mapError(err error) error {
	var se *stripego.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("stripe request: %w", err)
	}

	if se.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("stripe %s: %w", se.Msg, provider.ErrNotFound)
	}

	return &provider.HTTPError{StatusCode: se.HTTPStatusCode, Body: se.Msg}
}

var _ provider.Resolver = (*Client)(nil)
