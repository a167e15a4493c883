// Package stripe adapts Stripe subscription billing webhooks.
package stripe

import (
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

func NewAdapter(cfg Config) provider.Adapter {
	return provider.Adapter{
		Normalizer: NewNormalizer(),
		Verifier:   NewVerifier(cfg.WebhookSecret),
		Resolver: NewClient(
			NewSubscriptionClient(cfg.SecretKey, cfg.BaseURL),
			NewInvoiceClient(cfg.SecretKey, cfg.BaseURL),
		),
	}
}
