package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDBErr(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: pgx.ErrNoRows, want: repository.ErrNotFound},
		{name: "serialization", in: &pgconn.PgError{Code: "40001"}, want: repository.ErrConflict},
		{name: "deadlock", in: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), want: repository.ErrConflict},
		{name: "unique", in: &pgconn.PgError{Code: "23505", ConstraintName: "bookings_ride_rider_key"}, want: repository.ErrDuplicate},
		{name: "passthrough", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateDBErr(tt.in)
			require.ErrorIs(t, got, tt.want)
		})
	}

	assert.NoError(t, translateDBErr(nil))
}

func TestWrapDBErrKeepsOp(t *testing.T) {
	err := wrapDBErr("postgres.RideRepo.Get", pgx.ErrNoRows)

	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "postgres.RideRepo.Get")
	assert.NoError(t, wrapDBErr("op", nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("x")))
}
