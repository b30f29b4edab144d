package display

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRelay shares refresh commands between service instances. Changes are
// published on a Redis channel and every instance rebroadcasts what it
// receives to its own displays.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     zerolog.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		log:     log.With().Str("component", "display_relay").Logger(),
	}
}

// ContentChanged publishes a refresh for every instance
func (r *RedisRelay) ContentChanged(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, RefreshMessage).Err(); err != nil {
		return fmt.Errorf("failed to publish refresh: %w", err)
	}
	return nil
}

// Run forwards published messages to the hub until ctx is done
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("Listening for refresh commands")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(ctx context.Context, payload string) {
	if payload != RefreshMessage {
		r.log.Warn().Str("payload", payload).Msg("Ignoring unknown relay message")
		return
	}
	_ = r.hub.ContentChanged(ctx)
}
