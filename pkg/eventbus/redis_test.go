package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedisBus(t *testing.T) (*redis.Client, *RedisBus) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}

	bus := NewRedisBus(client, zap.NewNop(), 3, 50*time.Millisecond)
	return client, bus
}

func TestRedisBus_PublishSubscribeRoundtrip(t *testing.T) {
	client, bus := setupRedisBus(t)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []string

	go func() {
		_ = bus.Subscribe(ctx, "test-events", func(payload []byte) {
			mu.Lock()
			received = append(received, string(payload))
			mu.Unlock()
		})
	}()

	// 구독이 자리잡을 시간
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, bus.Publish(ctx, "test-events", map[string]string{"userID": "u1"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"userID":"u1"}`, received[0])
}

func TestRedisBus_SubscribeStopsOnContextCancel(t *testing.T) {
	client, bus := setupRedisBus(t)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- bus.Subscribe(ctx, "test-events", func([]byte) {})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Subscribe did not return after context cancel")
	}
}
