package multicast

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBridge relays the local pool over a Redis Pub/Sub channel so that
// pools in different processes observe each other's messages. Every locally
// originated publish is forwarded to Redis; every remote frame is republished
// into the local pool. Messages injected by a bridge are never forwarded
// again, which keeps two bridged pools from echoing.
type RedisBridge struct {
	client  redis.UniversalClient
	channel string
	origin  string
	pool    *Pool

	tap    string
	pubsub *redis.PubSub
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRedisBridge attaches a bridge between pool and the given Redis channel.
func NewRedisBridge(ctx context.Context, client redis.UniversalClient, channel string, pool *Pool) (*RedisBridge, error) {
	if channel == "" {
		channel = "scriptd:multicast"
	}

	bridgeCtx, cancel := context.WithCancel(context.Background())
	b := &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		pool:    pool,
		cancel:  cancel,
	}

	tap, err := pool.Subscribe(Filter{}, b.forward, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("multicast: bridge tap: %w", err)
	}
	b.tap = tap

	b.pubsub = client.Subscribe(ctx, channel)
	go b.receive(bridgeCtx)
	return b, nil
}

// forward runs on the pool dispatcher for every local publish.
func (b *RedisBridge) forward(msg Message) {
	if msg.origin != "" {
		// Injected by a bridge; forwarding it again would loop.
		return
	}
	data, err := encodeMessage(msg, b.origin)
	if err != nil {
		metricsRecorder().RecordDropped(payloadKind(msg.Payload), "encode_failed")
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
		metricsRecorder().RecordDropped(payloadKind(msg.Payload), "bridge_publish_failed")
	}
}

func (b *RedisBridge) receive(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			msg, origin, err := decodeMessage([]byte(frame.Payload))
			if err != nil {
				metricsRecorder().RecordDropped("unknown", "decode_failed")
				continue
			}
			if origin == b.origin {
				// Our own forward coming back around.
				continue
			}
			b.pool.Publish(msg)
		}
	}
}

// Healthy reports whether the Redis connection responds to ping.
func (b *RedisBridge) Healthy() bool {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return false
	}
	return b.client.Ping(context.Background()).Err() == nil
}

// Close detaches the bridge from the pool and Redis. Idempotent.
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.pool.Unsubscribe(b.tap)
	return b.pubsub.Close()
}
