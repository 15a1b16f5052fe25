package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher publishes events on a pub/sub channel so that every API
// process, not only the one that committed the change, can notify its
// WebSocket clients.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := e.Marshal()
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Relay forwards messages from the channel to b until ctx is done.
func Relay(ctx context.Context, client *redis.Client, channel string, b Broadcaster, log *zap.Logger) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting ready
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", channel, err)
	}
	log.Info("relaying events from redis", zap.String("channel", channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.Broadcast([]byte(msg.Payload))
		}
	}
}

// ConnectRedis opens a client and checks the server answers.
func ConnectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}
