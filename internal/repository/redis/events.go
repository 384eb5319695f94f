package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Events publishes ride changes and rider notifications over redis pub/sub.
type Events struct {
	rdb           *redis.Client
	rideChannel   string
	notifyChannel string
}

func NewEvents(rdb *redis.Client) *Events {
	return &Events{
		rdb:           rdb,
		rideChannel:   ChannelRidesChanged(),
		notifyChannel: ChannelNotifications(),
	}
}

type rideChangedMsg struct {
	Type     string `json:"type"`
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
	Status   string `json:"status"`
	Version  int64  `json:"version"`
	TsUnix   int64  `json:"ts_unix"`
}

// RideChange is what subscribers learn about a changed ride.
type RideChange struct {
	RideID   uuid.UUID
	DriverID string
	Status   domain.RideStatus
	Version  int64
}

func (e *Events) PublishRideChanged(ctx context.Context, ride domain.Ride) error {
	msg := rideChangedMsg{
		Type:     "ride_changed",
		RideID:   ride.ID.String(),
		DriverID: ride.DriverID,
		Status:   string(ride.Status),
		Version:  ride.Version,
		TsUnix:   time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return e.rdb.Publish(ctx, e.rideChannel, b).Err()
}

// Notify hands n to the notification channel. Delivery workers outside this
// service consume it.
func (e *Events) Notify(ctx context.Context, n domain.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("redis.Events.Notify: %w", err)
	}

	return e.rdb.Publish(ctx, e.notifyChannel, b).Err()
}

// SubscribeRideChanged blocks until ctx is done, calling handler for every
// well formed ride change.
func (e *Events) SubscribeRideChanged(ctx context.Context, handler func(ctx context.Context, change RideChange)) error {
	sub := e.rdb.Subscribe(ctx, e.rideChannel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			change, ok := decodeRideChanged(m.Payload)
			if ok {
				handler(ctx, change)
			}
		}
	}
}

func decodeRideChanged(payload string) (RideChange, bool) {
	var msg rideChangedMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return RideChange{}, false
	}

	id, err := uuid.Parse(msg.RideID)
	if err != nil || id == uuid.Nil {
		return RideChange{}, false
	}

	return RideChange{
		RideID:   id,
		DriverID: msg.DriverID,
		Status:   domain.RideStatus(msg.Status),
		Version:  msg.Version,
	}, true
}
