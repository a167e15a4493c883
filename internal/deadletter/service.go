package deadletter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=deadletter
type Repository interface {
	// Append inserts the letter, or refreshes the existing one for the same
	// provider event, and fills in ID and timestamps.
	Append(ctx context.Context, l *Letter) error
	Get(ctx context.Context, id uuid.UUID) (*Letter, error)
	List(ctx context.Context, filter ListFilter) ([]*Letter, error)
	Due(ctx context.Context, now time.Time, limit int) ([]*Letter, error)
	UpdateAttempt(ctx context.Context, l *Letter) error
	Resolve(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Policy spaces out retries exponentially.
type Policy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Delay is the wait before the next try after attempts failures.
func (p Policy) Delay(attempts int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	return d
}

type Service struct {
	repo   Repository
	policy Policy
	now    func() time.Time
}

func NewService(repo Repository, policy Policy) *Service {
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Minute
	}

	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}

	return &Service{repo: repo, policy: policy, now: time.Now}
}

type AppendParams struct {
	Provider        event.Provider
	ProviderEventID string
	Payload         []byte
	Reason          Reason
	Retryable       bool
	Err             error
}

func (s *Service) Append(ctx context.Context, p AppendParams) (*Letter, error) {
	l := &Letter{
		Provider:        p.Provider,
		ProviderEventID: p.ProviderEventID,
		Payload:         p.Payload,
		Reason:          p.Reason,
		Retryable:       p.Retryable,
	}

	if p.Err != nil {
		l.LastError = p.Err.Error()
	}

	if p.Retryable {
		l.NextAttemptAt = new(s.now().UTC().Add(s.policy.BaseDelay))
	}

	if err := s.repo.Append(ctx, l); err != nil {
		return nil, fmt.Errorf("appending dead letter: %w", err)
	}

	return l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Letter, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Letter, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Due(ctx context.Context, limit int) ([]*Letter, error) {
	return s.repo.Due(ctx, s.now().UTC(), limit)
}

// RecordFailure records an unsuccessful retry. Letters that can no longer succeed by
// waiting stop being scheduled.
func (s *Service) RecordFailure(ctx context.Context, l *Letter, cause error, reason Reason, retryable bool) error {
	l.Attempts++
	l.Reason = reason
	l.Retryable = retryable
	l.LastError = cause.Error()
	l.NextAttemptAt = nil

	if retryable {
		l.NextAttemptAt = new(s.now().UTC().Add(s.policy.Delay(l.Attempts)))
	}

	if err := s.repo.UpdateAttempt(ctx, l); err != nil {
		return fmt.Errorf("updating dead letter %s: %w", l.ID, err)
	}

	return nil
}

func (s *Service) Resolve(ctx context.Context, l *Letter) error {
	at := s.now().UTC()
	if err := s.repo.Resolve(ctx, l.ID, at); err != nil {
		return fmt.Errorf("resolving dead letter %s: %w", l.ID, err)
	}

	l.ResolvedAt = &at
	l.NextAttemptAt = nil

	return nil
}
