package multicast

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func requireRedisClient(tb testing.TB) redis.UniversalClient {
	tb.Helper()

	addr := os.Getenv("SCRIPTD_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		tb.Skipf("redis is not available at %s: %v", addr, err)
	}
	tb.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBridge_ForwardsAcrossPools(t *testing.T) {
	client := requireRedisClient(t)
	channel := fmt.Sprintf("scriptd:test:multicast:%d", time.Now().UnixNano())

	poolA := NewPool()
	defer poolA.Close()
	poolB := NewPool()
	defer poolB.Close()

	ctx := context.Background()
	bridgeA, err := NewRedisBridge(ctx, client, channel, poolA)
	if err != nil {
		t.Fatal(err)
	}
	defer bridgeA.Close()
	bridgeB, err := NewRedisBridge(ctx, client, channel, poolB)
	if err != nil {
		t.Fatal(err)
	}
	defer bridgeB.Close()

	got := make(chan Message, 8)
	if _, err := poolB.Subscribe(Filter{Sources: []string{"stage1"}}, func(msg Message) {
		got <- msg
	}, nil); err != nil {
		t.Fatal(err)
	}

	// Give the Redis subscription loops a moment to attach before publishing.
	time.Sleep(100 * time.Millisecond)

	poolA.Publish(Message{
		Source:      "stage1",
		Destination: DestAll,
		Tags:        []string{"sample"},
		Payload:     ValuePayload{Name: "position", Value: 7.5},
	})

	select {
	case msg := <-got:
		p, ok := msg.Payload.(ValuePayload)
		if !ok || p.Value != 7.5 {
			t.Fatalf("unexpected payload: %+v", msg.Payload)
		}
		if !msg.HasTag("sample") {
			t.Errorf("tags lost in transit: %+v", msg.Tags)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bridged message")
	}
}

func TestRedisBridge_NoEcho(t *testing.T) {
	client := requireRedisClient(t)
	channel := fmt.Sprintf("scriptd:test:multicast:echo:%d", time.Now().UnixNano())

	pool := NewPool()
	defer pool.Close()

	bridge, err := NewRedisBridge(context.Background(), client, channel, pool)
	if err != nil {
		t.Fatal(err)
	}
	defer bridge.Close()

	got := make(chan Message, 8)
	if _, err := pool.Subscribe(Filter{}, func(msg Message) { got <- msg }, nil); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	pool.Publish(Message{Source: "stage1", Destination: DestAll, Payload: ValuePayload{Name: "x", Value: 1}})

	// The local subscriber sees the publish exactly once: the bridge must
	// not re-inject its own frame.
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("local delivery missing")
	}
	select {
	case msg := <-got:
		t.Fatalf("echoed message re-delivered: %+v", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRedisBridge_CloseIdempotent(t *testing.T) {
	client := requireRedisClient(t)
	pool := NewPool()
	defer pool.Close()

	bridge, err := NewRedisBridge(context.Background(), client,
		fmt.Sprintf("scriptd:test:multicast:close:%d", time.Now().UnixNano()), pool)
	if err != nil {
		t.Fatal(err)
	}

	if !bridge.Healthy() {
		t.Error("expected bridge to be healthy before close")
	}
	if err := bridge.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := bridge.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
	if bridge.Healthy() {
		t.Error("expected closed bridge to be unhealthy")
	}
	if pool.Subscriptions() != 0 {
		t.Errorf("bridge tap still subscribed after close")
	}
}
