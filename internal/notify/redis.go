package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker carries notifications between server instances over Redis
// pub/sub. Each instance publishes to Redis and forwards what it receives to
// its local websocket hub.
type RedisBroker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisBroker(rdb *redis.Client, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, topic Topic, payload []byte) error {
	if err := b.rdb.Publish(ctx, string(topic), payload).Err(); err != nil {
		b.logger.Warn("publish notification", zap.String("topic", string(topic)), zap.Error(err))
		return err
	}
	return nil
}

// Subscribe listens on every notification topic until ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context, sink Sink) error {
	pubsub := b.rdb.PSubscribe(ctx, topicPrefix+"*")

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	b.logger.Info("subscribed to notification topics", zap.String("pattern", topicPrefix+"*"))

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				sink.Deliver(Topic(msg.Channel), []byte(msg.Payload))
			}
		}
	}()
	return nil
}
