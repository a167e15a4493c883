package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

const DefaultBaseURL = "https://api.mercadopago.com"

// Client reads merchant orders from the Mercado Pago API.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type MerchantOrder struct {
	ID                flexID `json:"id"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
}

func (c *Client) MerchantOrder(ctx context.Context, id string) (*MerchantOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/merchant_orders/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("merchant order %s: %w", id, provider.ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var mo MerchantOrder
	if err := json.Unmarshal(body, &mo); err != nil {
		return nil, fmt.Errorf("decoding merchant order: %w", err)
	}

	return &mo, nil
}

// ResolveReference follows the merchant order attached to a payment.
func (c *Client) ResolveReference(ctx context.Context, ev *event.Event) (string, error) {
	if ev.MerchantOrderID == "" {
		return "", provider.ErrNoIndirection
	}

	mo, err := c.MerchantOrder(ctx, ev.MerchantOrderID)
	if err != nil {
		return "", err
	}

	if mo.ExternalReference == "" {
		return "", fmt.Errorf("merchant order %s has no external reference: %w", ev.MerchantOrderID, provider.ErrNotFound)
	}

	return mo.ExternalReference, nil
}

var _ provider.Resolver = (*Client)(nil)
