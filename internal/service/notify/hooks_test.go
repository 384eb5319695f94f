package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

type recordingCache struct {
	refreshed []domain.Ride
	err       error
}

func (c *recordingCache) RefreshRide(_ context.Context, ride domain.Ride) error {
	c.refreshed = append(c.refreshed, ride)
	return c.err
}

type recordingPublisher struct {
	published []uuid.UUID
}

func (p *recordingPublisher) PublishRideChanged(_ context.Context, ride domain.Ride) error {
	p.published = append(p.published, ride.ID)
	return nil
}

func TestHooksRideChanged(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ride := domain.Ride{ID: uuid.New(), Status: domain.RideFull, Version: 3}

	cache := &recordingCache{err: assert.AnError}
	pub := &recordingPublisher{}
	h := NewHooks(cache, pub, nil, logger)

	h.RideChanged(context.Background(), ride)

	// a failed cache write still publishes
	assert.Equal(t, []domain.Ride{ride}, cache.refreshed)
	assert.Equal(t, []uuid.UUID{ride.ID}, pub.published)
}

func TestHooksNilSafe(t *testing.T) {
	var h *Hooks
	assert.NotPanics(t, func() {
		h.RideChanged(context.Background(), domain.Ride{})
		h.Notify(context.Background(), domain.Notification{})
	})

	assert.NotPanics(t, func() {
		NewHooks(nil, nil, nil, nil).RideChanged(context.Background(), domain.Ride{})
	})
}
