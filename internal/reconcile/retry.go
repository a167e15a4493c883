package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

// Retry re-runs a dead-lettered event. On success the letter is resolved;
// otherwise the failure is recorded on it and returned.
func (s *Service) Retry(ctx context.Context, l *deadletter.Letter) (*Result, error) {
	if l.Resolved() {
		return &Result{DeadLetter: l}, nil
	}

	res, park, err := s.run(ctx, l.Provider, l.Payload)
	if err != nil {
		if ferr := s.letters.RecordFailure(ctx, l, err, l.Reason, !permanent(err)); ferr != nil {
			return nil, errors.Join(err, ferr)
		}

		s.metrics.IncRetry("error")

		return nil, err
	}

	if park != nil {
		if ferr := s.letters.RecordFailure(ctx, l, park.err, park.reason, park.retryable); ferr != nil {
			return nil, errors.Join(park.err, ferr)
		}

		s.metrics.IncRetry("failed")

		return &Result{Event: park.event, DeadLetter: l}, park.err
	}

	if err := s.letters.Resolve(ctx, l); err != nil {
		return nil, fmt.Errorf("resolving letter after %s: %w", res.Decision.Verdict, err)
	}

	s.metrics.IncRetry("resolved")

	slog.Info("dead letter resolved",
		"id", l.ID, "provider", l.Provider, "event_id", l.ProviderEventID,
		"attempts", l.Attempts, "verdict", res.Decision.Verdict.String())

	return res, nil
}

// RetryDeadLetter lets the sweeper drive Retry.
func (s *Service) RetryDeadLetter(ctx context.Context, l *deadletter.Letter) error {
	_, err := s.Retry(ctx, l)
	return err
}

// permanent reports failures that waiting will not fix.
func permanent(err error) bool {
	var malformed *event.MalformedEventError

	return errors.As(err, &malformed) || errors.Is(err, provider.ErrUnknownProvider)
}
