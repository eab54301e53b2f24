package notify

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"kanban-board/domain"
)

// RedisPublisher publishes board events to a Redis pub/sub channel so other
// API instances can signal their own SSE subscribers.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.BoardEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Relay forwards events published on channel by any instance to b until ctx
// is done. Events this instance published are delivered again, which only
// costs a redundant signal.
func Relay(ctx context.Context, client *redis.Client, channel string, b *Broker) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.BoardEvent
			if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil || ev.BoardID == "" {
				continue
			}
			b.Notify(ev.BoardID)
		}
	}
}
