package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCreateRejectsSecondReviewOfRide(t *testing.T) {
	ctx := context.Background()
	s, ride := setupStoreWithRide(t)
	at := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)

	first := domain.Review{ID: uuid.New(), RideID: ride.ID, ReviewerID: "rider-1", DriverID: "driver-1", Rating: 4, CreatedAt: at}
	require.NoError(t, s.Reviews().Create(ctx, &first))

	again := first
	again.ID = uuid.New()
	again.Rating = 1
	require.ErrorIs(t, s.Reviews().Create(ctx, &again), repository.ErrDuplicate)

	other := domain.Review{ID: uuid.New(), RideID: ride.ID, ReviewerID: "rider-2", DriverID: "driver-1", Rating: 5, CreatedAt: at.Add(time.Minute)}
	require.NoError(t, s.Reviews().Create(ctx, &other))

	byRide, err := s.Reviews().ListByRide(ctx, ride.ID)
	require.NoError(t, err)
	require.Len(t, byRide, 2)
	assert.Equal(t, other.ID, byRide[0].ID, "newest first")

	byDriver, err := s.Reviews().ListByDriver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Len(t, byDriver, 2)

	none, err := s.Reviews().ListByDriver(ctx, "driver-2")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Reviews().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReviewAndRatingShareUnitOfWork(t *testing.T) {
	ctx := context.Background()
	s, ride := setupStoreWithRide(t)
	boom := errors.New("boom")

	err := s.RunTx(ctx, func(ctx context.Context) error {
		rv := domain.Review{ID: uuid.New(), RideID: ride.ID, ReviewerID: "rider-1", DriverID: "driver-1", Rating: 3}
		require.NoError(t, s.Reviews().Create(ctx, &rv))

		seen, err := s.Reviews().ListByDriver(ctx, "driver-1")
		require.NoError(t, err)
		require.Len(t, seen, 1)

		rating := domain.RateDriver("driver-1", seen, time.Time{})
		require.NoError(t, s.Ratings().Upsert(ctx, &rating))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Ratings().Get(ctx, "driver-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	left, err := s.Reviews().ListByRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}
