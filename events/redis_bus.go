package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus publishes events on a Redis channel and forwards everything received on it
// to local subscribers, so every instance sees every instance's events.
type RedisBus struct {
	log     *zap.Logger
	rdb     *redis.Client
	channel string
	local   *MemoryBus
	cancel  context.CancelFunc
}

// NewRedisBus subscribes to channel and starts the forwarder goroutine.
func NewRedisBus(ctx context.Context, rdb *redis.Client, channel string, log *zap.Logger) (*RedisBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	fctx, cancel := context.WithCancel(ctx)
	b := &RedisBus{
		log:     log,
		rdb:     rdb,
		channel: channel,
		local:   NewMemoryBus(log),
		cancel:  cancel,
	}

	sub := rdb.Subscribe(fctx, channel)
	// ensures subscription actually started
	if _, err := sub.Receive(fctx); err != nil {
		cancel()
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	go b.forward(fctx, sub)
	return b, nil
}

func (b *RedisBus) forward(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				b.log.Warn("bad event payload", zap.Error(err))
				continue
			}
			b.local.broadcast(ev)
		}
	}
}

// Publish sends ev to the Redis channel; local subscribers receive it through the forwarder.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe registers a local subscriber.
func (b *RedisBus) Subscribe() (<-chan Event, func()) {
	return b.local.Subscribe()
}

// Close stops the forwarder and closes local subscribers. The Redis client is owned by the caller.
func (b *RedisBus) Close() error {
	b.cancel()
	return b.local.Close()
}
