package provider_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
	"github.com/MrJamesThe3rd/payrecon/internal/provider/mercadopago"
)

func TestService_Registry(t *testing.T) {
	svc := provider.NewService(map[event.Provider]provider.Adapter{
		event.ProviderMercadoPago: {Normalizer: mercadopago.NewNormalizer()},
	})

	ev, err := svc.Normalize(event.ProviderMercadoPago, []byte(`{"id":"evt-1","data":{"id":"pay-1","status":"approved"}}`))
	require.NoError(t, err)
	assert.Equal(t, "pay-1", ev.ProviderPaymentID)

	_, err = svc.Normalize("paypal", []byte(`{}`))
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)

	// No verifier registered: everything is rejected.
	err = svc.Verify(event.ProviderMercadoPago, []byte(`{}`), http.Header{}, nil)
	assert.ErrorIs(t, err, provider.ErrInvalidSignature)

	_, err = svc.ResolveReference(context.Background(), ev)
	assert.ErrorIs(t, err, provider.ErrNoIndirection)

	assert.Equal(t, []event.Provider{event.ProviderMercadoPago}, svc.Providers())
}
