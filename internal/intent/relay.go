package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=relay.go -destination=repository_mock.go -package=intent
type Repository interface {
	ListPending(ctx context.Context, limit int) ([]Intent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

type Publisher interface {
	Publish(ctx context.Context, in Intent) error
}

// Relay drains the transactional outbox into a Publisher.
type Relay struct {
	repo      Repository
	publisher Publisher
	interval  time.Duration
	batch     int
}

func NewRelay(repo Repository, publisher Publisher, interval time.Duration, batch int) *Relay {
	if batch <= 0 {
		batch = 100
	}

	return &Relay{repo: repo, publisher: publisher, interval: interval, batch: batch}
}

// RunOnce publishes one batch and returns how many intents left the outbox.
// Publishing stops at the first failure so ordering per record is kept.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.repo.ListPending(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("listing pending intents: %w", err)
	}

	for i, in := range pending {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		if err := r.publisher.Publish(ctx, in); err != nil {
			return i, fmt.Errorf("publishing intent %s: %w", in.ID, err)
		}

		if err := r.repo.MarkPublished(ctx, in.ID); err != nil {
			return i, fmt.Errorf("marking intent %s published: %w", in.ID, err)
		}
	}

	return len(pending), nil
}

// Run polls the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	slog.Info("intent relay running", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("intent relay stopping")
			return nil
		case <-ticker.C:
			n, err := r.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Error("intent relay failed", "error", err, "published", n)
				continue
			}

			if n > 0 {
				slog.Debug("intents published", "count", n)
			}
		}
	}
}
