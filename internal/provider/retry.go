package provider

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

// RetryingResolver retries transient provider failures with exponential backoff.
type RetryingResolver struct {
	delegate     Resolver
	attempts     int
	buildBackoff func() backoff.BackOff
}

// NewRetryingResolver makes at most attempts calls to delegate.
func NewRetryingResolver(delegate Resolver, attempts int, factory func() backoff.BackOff) *RetryingResolver {
	if attempts < 1 {
		attempts = 1
	}

	if factory == nil {
		factory = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		}
	}

	return &RetryingResolver{delegate: delegate, attempts: attempts, buildBackoff: factory}
}

func (r *RetryingResolver) ResolveReference(ctx context.Context, ev *event.Event) (string, error) {
	var ref string

	op := func() error {
		got, err := r.delegate.ResolveReference(ctx, ev)
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}

			return err
		}

		ref = got

		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.buildBackoff(), uint64(r.attempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}

	return ref, nil
}

var _ Resolver = (*RetryingResolver)(nil)
