package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "event:"

// redisPayload is the message published to Redis for cross-instance broadcast.
type redisPayload struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
	At   int64           `json:"at"`
}

// Channel returns the pub/sub channel of an event.
func Channel(eventID uuid.UUID) string {
	return channelPrefix + eventID.String()
}

// RedisPubSub implements Publisher and Subscriber with Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for event feeds.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishEvent publishes a message to the event's channel.
func (r *RedisPubSub) PublishEvent(ctx context.Context, eventID uuid.UUID, kind string, payload []byte) error {
	body, err := json.Marshal(redisPayload{Kind: kind, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Channel(eventID), body).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SubscribeEvent subscribes to an event's channel and calls handler for each message.
// The returned cancel stops the subscription.
func (r *RedisPubSub) SubscribeEvent(eventID uuid.UUID, handler func(kind string, payload []byte)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, Channel(eventID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Warn("invalid pubsub payload", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				handler(p.Kind, p.Data)
			}
		}
	}()
	return cancel, nil
}
