package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/agenda/pkg/logging"
)

// RedisSubscriber reads change events relayed onto a Redis pub/sub channel.
type RedisSubscriber struct {
	redis   *redis.Client
	channel string
	logger  *logging.Logger
}

func NewRedisSubscriber(client *redis.Client, channel string, logger *logging.Logger) *RedisSubscriber {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisSubscriber{redis: client, channel: channel, logger: logger}
}

// Subscribe forwards every message for table. Messages without a table are
// delivered as belonging to it.
func (s *RedisSubscriber) Subscribe(ctx context.Context, table string) (<-chan Event, error) {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("realtime: subscribe %s: %w", s.channel, err)
	}

	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
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
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.logger.Warn("realtime relay payload undecodable", "channel", s.channel, "error", err)
					continue
				}
				if ev.Table == "" {
					ev.Table = table
				}
				if ev.Table != table {
					continue
				}
				ev.ReceivedAt = time.Now()
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

// Publish relays ev onto the channel; the counterpart of RedisSubscriber.
func (s *RedisSubscriber) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}
	if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("realtime: publish: %w", err)
	}
	return nil
}
