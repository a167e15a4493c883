package stripe

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

const HeaderSignature = "Stripe-Signature"

type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

func (v *Verifier) Verify(payload []byte, header http.Header, _ url.Values) error {
	if v.secret == "" {
		return provider.ErrInvalidSignature
	}

	sig := header.Get(HeaderSignature)
	if sig == "" {
		return provider.ErrInvalidSignature
	}

	if err := webhook.ValidatePayload(payload, sig, v.secret); err != nil {
		return provider.ErrInvalidSignature
	}

	return nil
}
