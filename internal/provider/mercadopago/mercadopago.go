// Package mercadopago adapts Mercado Pago checkout notifications.
package mercadopago

import (
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

type Config struct {
	BaseURL       string
	AccessToken   string
	WebhookSecret string
}

func NewAdapter(cfg Config) provider.Adapter {
	return provider.Adapter{
		Normalizer: NewNormalizer(),
		Verifier:   NewVerifier(cfg.WebhookSecret),
		Resolver:   NewClient(cfg.BaseURL, cfg.AccessToken),
	}
}
