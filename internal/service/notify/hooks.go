// Package notify runs the side effects that follow a committed ride or
// booking change: cache invalidation, change events and rider messages.
// Failures are logged and never returned.
package notify

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type RideCache interface {
	RefreshRide(ctx context.Context, ride domain.Ride) error
}

type RidePublisher interface {
	PublishRideChanged(ctx context.Context, ride domain.Ride) error
}

// Hooks is safe to use with any dependency left nil.
type Hooks struct {
	cache     RideCache
	publisher RidePublisher
	notifier  Notifier
	logger    *slog.Logger
}

func NewHooks(cache RideCache, publisher RidePublisher, notifier Notifier, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hooks{
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// RideChanged writes the committed ride through to the cache and announces
// the change.
func (h *Hooks) RideChanged(ctx context.Context, ride domain.Ride) {
	if h == nil {
		return
	}

	if h.cache != nil {
		if err := h.cache.RefreshRide(ctx, ride); err != nil {
			h.logger.Warn("ride cache refresh failed", "ride_id", ride.ID, "error", err)
		}
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRideChanged(ctx, ride); err != nil {
			h.logger.Warn("ride change publish failed", "ride_id", ride.ID, "error", err)
		}
	}
}

// Notify is fire and forget.
func (h *Hooks) Notify(ctx context.Context, n domain.Notification) {
	if h == nil || h.notifier == nil {
		return
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.Warn("notification failed",
			"notification_id", n.ID,
			"recipient_id", n.RecipientID,
			"kind", n.Kind,
			"error", err,
		)
	}
}
