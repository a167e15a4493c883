package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
)

// DeadLetters implements deadletter.Repository.
type DeadLetters struct {
	mu      sync.Mutex
	letters []*deadletter.Letter
}

func NewDeadLetters() *DeadLetters {
	return &DeadLetters{}
}

func cloneLetter(l *deadletter.Letter) *deadletter.Letter {
	c := *l
	c.Payload = slices.Clone(l.Payload)

	if l.NextAttemptAt != nil {
		c.NextAttemptAt = new(*l.NextAttemptAt)
	}

	if l.ResolvedAt != nil {
		c.ResolvedAt = new(*l.ResolvedAt)
	}

	return &c
}

func (d *DeadLetters) Append(_ context.Context, l *deadletter.Letter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now().UTC()

	for _, existing := range d.letters {
		if existing.Provider != l.Provider || existing.ProviderEventID != l.ProviderEventID {
			continue
		}

		existing.Payload = slices.Clone(l.Payload)
		existing.Reason = l.Reason
		existing.Retryable = l.Retryable
		existing.LastError = l.LastError
		existing.ResolvedAt = nil
		existing.UpdatedAt = now

		switch {
		case !l.Retryable:
			existing.NextAttemptAt = nil
		case existing.NextAttemptAt == nil:
			existing.NextAttemptAt = l.NextAttemptAt
		}

		*l = *cloneLetter(existing)

		return nil
	}

	l.ID = uuid.New()
	l.CreatedAt = now
	l.UpdatedAt = now

	d.letters = append(d.letters, cloneLetter(l))

	return nil
}

func (d *DeadLetters) Get(_ context.Context, id uuid.UUID) (*deadletter.Letter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, l := range d.letters {
		if l.ID == id {
			return cloneLetter(l), nil
		}
	}

	return nil, deadletter.ErrNotFound
}

func (d *DeadLetters) List(_ context.Context, filter deadletter.ListFilter) ([]*deadletter.Letter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*deadletter.Letter

	for _, l := range d.letters {
		if filter.Reason != nil && l.Reason != *filter.Reason {
			continue
		}

		if filter.OnlyOpen && l.Resolved() {
			continue
		}

		out = append(out, cloneLetter(l))
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (d *DeadLetters) Due(_ context.Context, now time.Time, limit int) ([]*deadletter.Letter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*deadletter.Letter

	for _, l := range d.letters {
		if l.Resolved() || !l.Retryable || l.NextAttemptAt == nil || l.NextAttemptAt.After(now) {
			continue
		}

		out = append(out, cloneLetter(l))
	}

	slices.SortFunc(out, func(a, b *deadletter.Letter) int {
		return a.NextAttemptAt.Compare(*b.NextAttemptAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (d *DeadLetters) UpdateAttempt(_ context.Context, l *deadletter.Letter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.letters {
		if existing.ID == l.ID {
			updated := cloneLetter(l)
			updated.UpdatedAt = time.Now().UTC()
			d.letters[i] = updated

			return nil
		}
	}

	return deadletter.ErrNotFound
}

func (d *DeadLetters) Resolve(_ context.Context, id uuid.UUID, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, l := range d.letters {
		if l.ID == id {
			l.ResolvedAt = new(at)
			l.NextAttemptAt = nil

			return nil
		}
	}

	return deadletter.ErrNotFound
}

// Len counts stored letters, resolved ones included.
func (d *DeadLetters) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.letters)
}
