package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus Redis Pub/Sub 기반 이벤트 버스
type RedisBus struct {
	client     *redis.Client
	logger     *zap.Logger
	instanceID string // 구독자 인스턴스 고유 ID (로그 식별용)

	maxRetries int
	backoff    time.Duration
}

// NewRedisBus Redis 이벤트 버스 생성
func NewRedisBus(client *redis.Client, logger *zap.Logger, maxRetries int, backoff time.Duration) *RedisBus {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	return &RedisBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.New().String(),
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Publish 이벤트 발행 (실패 시 백오프 재시도)
func (b *RedisBus) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := b.backoff
	var lastErr error

	for i := 0; i < b.maxRetries; i++ {
		if err := b.client.Publish(ctx, channel, data).Err(); err == nil {
			b.logger.Debug("Published event",
				zap.String("channel", channel),
				zap.Int("attempt", i+1))
			return nil
		} else {
			lastErr = err
		}

		// 재시도 전 대기 (백오프 2배씩 증가)
		if i < b.maxRetries-1 {
			b.logger.Warn("Publish failed, retrying",
				zap.String("channel", channel),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("%w: %v", ErrPublishFailed, lastErr)
}

// Subscribe 채널 구독 및 수신 루프 (ctx 취소까지 블로킹)
func (b *RedisBus) Subscribe(ctx context.Context, channel string, handler Handler) error {
	pubsub := b.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// 구독 확인
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b.logger.Info("Subscribed to channel",
		zap.String("channel", channel),
		zap.String("instance_id", b.instanceID))

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return ErrBusClosed
			}
			if msg == nil {
				continue
			}
			handler([]byte(msg.Payload))

		case <-ctx.Done():
			b.logger.Info("Subscription stopped", zap.String("channel", channel))
			return nil
		}
	}
}
