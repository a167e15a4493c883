package deadletter

import (
	"context"
	"log/slog"
	"time"
)

// Retrier re-runs reconciliation for a stored letter and records the result
// on it.
type Retrier interface {
	RetryDeadLetter(ctx context.Context, l *Letter) error
}

// Sweeper periodically retries due letters, one at a time.
type Sweeper struct {
	letters  *Service
	retrier  Retrier
	interval time.Duration
	batch    int
}

func NewSweeper(letters *Service, retrier Retrier, interval time.Duration, batch int) *Sweeper {
	if batch <= 0 {
		batch = 50
	}

	return &Sweeper{letters: letters, retrier: retrier, interval: interval, batch: batch}
}

// RunOnce retries one batch. Cancellation is honoured between letters.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	due, err := s.letters.Due(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	processed := 0

	for _, l := range due {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := s.retrier.RetryDeadLetter(ctx, l); err != nil {
			slog.Warn("dead letter retry failed",
				"id", l.ID, "provider", l.Provider, "event_id", l.ProviderEventID,
				"attempts", l.Attempts, "error", err)
		}

		processed++
	}

	return processed, nil
}

func (s *Sweeper) Run(ctx context.Context) error {
	slog.Info("dead letter sweeper running", "interval", s.interval, "batch", s.batch)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("dead letter sweeper stopping")
			return nil
		case <-ticker.C:
			n, err := s.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Error("dead letter sweep failed", "error", err)
				continue
			}

			if n > 0 {
				slog.Info("dead letter sweep finished", "processed", n)
			}
		}
	}
}
