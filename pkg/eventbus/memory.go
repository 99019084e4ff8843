package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryBus 단일 프로세스용 인메모리 이벤트 버스
// 테스트와 로컬 개발에서 Redis 없이 두 컴포넌트를 연결할 때 사용
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte
	closed      bool
}

// NewMemoryBus 인메모리 버스 생성
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[string][]chan []byte),
	}
}

// Publish 구독자 전원에게 이벤트 전달
func (b *MemoryBus) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	for _, sub := range b.subscribers[channel] {
		select {
		case sub <- data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Subscribe 채널 구독 및 수신 루프 (ctx 취소까지 블로킹)
func (b *MemoryBus) Subscribe(ctx context.Context, channel string, handler Handler) error {
	sub := make(chan []byte, 256)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.subscribers[channel] = append(b.subscribers[channel], sub)
	b.mu.Unlock()

	defer b.removeSubscriber(channel, sub)

	for {
		select {
		case payload := <-sub:
			handler(payload)
		case <-ctx.Done():
			return nil
		}
	}
}

// Close 버스 종료 (이후 Publish/Subscribe는 ErrBusClosed 반환)
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *MemoryBus) removeSubscriber(channel string, sub chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[channel]
	for i, s := range subs {
		if s == sub {
			b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
