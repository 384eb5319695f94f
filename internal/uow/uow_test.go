package uow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls int
}

func (f *fakeRunner) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func TestDoRunsHooksOnlyAfterSuccess(t *testing.T) {
	u := New(&fakeRunner{}, Config{})

	var ran []string
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { ran = append(ran, "first") })
		after(func(context.Context) { ran = append(ran, "second") })
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ran)

	ran = nil
	boom := errors.New("boom")
	err = u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { ran = append(ran, "never") })
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, ran)
}

func TestDoWithRetryRetriesConflicts(t *testing.T) {
	runner := &fakeRunner{}
	u := New(runner, Config{MaxAttempts: 3})

	hooks := 0
	attempts := 0
	err := u.DoWithRetry(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		attempts++
		after(func(context.Context) { hooks++ })
		if attempts < 3 {
			return fmt.Errorf("update: %w", repository.ErrConflict)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, 1, hooks)
}

func TestDoWithRetryGivesUp(t *testing.T) {
	u := New(&fakeRunner{}, Config{MaxAttempts: 2})

	attempts := 0
	err := u.DoWithRetry(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		attempts++
		return repository.ErrConflict
	})

	require.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 2, attempts)
}

func TestDoWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	u := New(&fakeRunner{}, Config{})

	attempts := 0
	err := u.DoWithRetry(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		attempts++
		return repository.ErrNotFound
	})

	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, attempts)
}
