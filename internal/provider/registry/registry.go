// Package registry builds the configured provider adapters.
package registry

import (
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/MrJamesThe3rd/payrecon/internal/config"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/mercadopago"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/stripe"
)

// FromConfig returns every supported adapter. Resolvers retry transient
// failures per cfg.Reconcile.
func FromConfig(cfg *config.Config) map[event.Provider]provider.Adapter {
	retry := func(a provider.Adapter) provider.Adapter {
		a.Resolver = provider.NewRetryingResolver(a.Resolver, cfg.Reconcile.ProviderAttempts, func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.Reconcile.InitialBackoff
			b.MaxElapsedTime = 10 * time.Second

			return b
		})

		return a
	}

	return map[event.Provider]provider.Adapter{
		event.ProviderMercadoPago: retry(mercadopago.NewAdapter(mercadopago.Config{
			BaseURL:       cfg.MercadoPago.BaseURL,
			AccessToken:   cfg.MercadoPago.AccessToken,
			WebhookSecret: cfg.MercadoPago.WebhookSecret,
		})),
		event.ProviderStripe: retry(stripe.NewAdapter(stripe.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			BaseURL:       cfg.Stripe.BaseURL,
		})),
	}
}
