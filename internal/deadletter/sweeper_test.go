package deadletter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/payrecon/internal/deadletter"
)

type retrierFunc func(ctx context.Context, l *deadletter.Letter) error

func (f retrierFunc) RetryDeadLetter(ctx context.Context, l *deadletter.Letter) error {
	return f(ctx, l)
}

func letters(n int) []*deadletter.Letter {
	out := make([]*deadletter.Letter, n)
	for i := range out {
		out[i] = &deadletter.Letter{ID: uuid.New(), Retryable: true}
	}

	return out
}

func TestSweeper_RunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := deadletter.NewMockRepository(ctrl)

	due := letters(3)
	repo.EXPECT().Due(gomock.Any(), gomock.Any(), 10).Return(due, nil)

	var seen []uuid.UUID

	retrier := retrierFunc(func(_ context.Context, l *deadletter.Letter) error {
		seen = append(seen, l.ID)
		if l == due[1] {
			return errors.New("still unresolved")
		}

		return nil
	})

	sweeper := deadletter.NewSweeper(deadletter.NewService(repo, deadletter.Policy{}), retrier, time.Minute, 10)

	n, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uuid.UUID{due[0].ID, due[1].ID, due[2].ID}, seen)
}

func TestSweeper_RunOnce_StopsBetweenLetters(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := deadletter.NewMockRepository(ctrl)

	due := letters(5)
	repo.EXPECT().Due(gomock.Any(), gomock.Any(), gomock.Any()).Return(due, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0

	retrier := retrierFunc(func(_ context.Context, _ *deadletter.Letter) error {
		calls++
		if calls == 2 {
			cancel()
		}

		return nil
	})

	sweeper := deadletter.NewSweeper(deadletter.NewService(repo, deadletter.Policy{}), retrier, time.Minute, 0)

	n, err := sweeper.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, calls)
}

func TestSweeper_RunOnce_DueError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := deadletter.NewMockRepository(ctrl)

	repo.EXPECT().Due(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	sweeper := deadletter.NewSweeper(deadletter.NewService(repo, deadletter.Policy{}), retrierFunc(func(context.Context, *deadletter.Letter) error {
		t.Fatal("retrier must not run")
		return nil
	}), time.Minute, 0)

	_, err := sweeper.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := deadletter.NewMockRepository(ctrl)
	repo.EXPECT().Due(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	sweeper := deadletter.NewSweeper(deadletter.NewService(repo, deadletter.Policy{}), retrierFunc(func(context.Context, *deadletter.Letter) error {
		return nil
	}), time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, sweeper.Run(ctx))
}
