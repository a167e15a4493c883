package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

var (
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotFound         = errors.New("not found at provider")
	// ErrNoIndirection means the event carries nothing the provider API can resolve.
	ErrNoIndirection = errors.New("no indirection available")
)

// Normalizer turns a raw provider payload into a canonical event.
// On *event.UnknownStatusError the returned event still carries the
// identifiers so the caller can dead-letter it.
type Normalizer interface {
	Normalize(payload []byte) (*event.Event, error)
}

type Verifier interface {
	Verify(payload []byte, header http.Header, query url.Values) error
}

// Resolver looks up the external reference behind a provider-side object
// such as a merchant order or a subscription.
type Resolver interface {
	ResolveReference(ctx context.Context, ev *event.Event) (string, error)
}

type Adapter struct {
	Normalizer Normalizer
	Verifier   Verifier
	Resolver   Resolver
}

// HTTPError is a non-2xx answer from a provider read API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider api: status=%d body=%s", e.StatusCode, e.Body)
}

// IsTransient reports whether a failed provider call is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoIndirection) || errors.Is(err, ErrUnknownProvider) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= http.StatusInternalServerError
	}

	// Anything else is a transport failure.
	return true
}
