package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// BusMessage is one relay payload crossing instances. TargetID set means
// a directed send; otherwise a room broadcast excluding SenderID.
// Instance identifies the publisher so it can skip its own messages.
type BusMessage struct {
	Instance string `json:"instance"`
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId,omitempty"`
	TargetID string `json:"targetId,omitempty"`
	Payload  []byte `json:"payload"`
}

// RedisBus bridges relay traffic between instances via pub/sub.
type RedisBus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, addr string, db int, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{rdb: rdb, log: log}, nil
}

// Publish sends a message to the redis channel for its room
func (b *RedisBus) Publish(ctx context.Context, m BusMessage) error {
	raw, _ := json.Marshal(m)
	return b.rdb.Publish(ctx, channel(m.RoomID), raw).Err()
}

// Subscribe listens to all room channels and invokes fn for each message
func (b *RedisBus) Subscribe(ctx context.Context, fn func(BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				b.log.Warn("bus.decode", "err", err)
				continue
			}
			if bm.RoomID != "" {
				fn(bm)
			}
		}
	}
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub
func channel(roomID string) string { return "room:" + roomID }
