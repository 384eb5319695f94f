package uow

import (
	"context"
	"errors"
	"time"

	"github.com/kirinyoku/shareway-go/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// TxRunner runs fn inside one storage transaction carried by ctx.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Config struct {
	// MaxAttempts bounds DoWithRetry. Defaults to 5.
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// UoW represents a unit of work.
type UoW struct {
	runner TxRunner
	cfg    Config
}

func New(runner TxRunner, cfg Config) *UoW {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}

	return &UoW{runner: runner, cfg: cfg}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.runner.RunTx(ctx, func(ctx context.Context) error {
		return fn(ctx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// DoWithRetry runs fn like Do and starts over while it fails with
// repository.ErrConflict. fn must re-read everything it decides on.
// Hooks of aborted attempts are dropped.
func (u *UoW) DoWithRetry(
	ctx context.Context,
	fn func(ctx context.Context, after func(AfterCommit)) error,
) error {
	var err error

	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		err = u.Do(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}

		if attempt == u.cfg.MaxAttempts {
			break
		}

		if u.cfg.Backoff > 0 {
			timer := time.NewTimer(time.Duration(attempt) * u.cfg.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return err
}
