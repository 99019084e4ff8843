package projection

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

// Consumer match-found-events / dequeue-events를 소비해 Store를 갱신
type Consumer struct {
	bus    eventbus.Bus
	store  *Store
	logger *zap.Logger

	cancelSub context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewConsumer 프로젝션 소비자 생성
func NewConsumer(bus eventbus.Bus, store *Store, logger *zap.Logger) *Consumer {
	return &Consumer{
		bus:    bus,
		store:  store,
		logger: logger,
	}
}

// Start 이벤트 소비 시작
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	c.cancelSub = cancel

	c.logger.Info("Starting status projection consumers")

	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		if err := c.bus.Subscribe(subCtx, models.ChannelMatchFoundEvents, c.handleMatchFound); err != nil {
			c.logger.Error("Match found consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		defer c.wg.Done()
		if err := c.bus.Subscribe(subCtx, models.ChannelDequeueEvents, c.handleDequeue); err != nil {
			c.logger.Error("Dequeue consumer stopped", zap.Error(err))
		}
	}()
}

// Stop 소비 중지 (루프 종료까지 대기)
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	if c.cancelSub != nil {
		c.cancelSub()
	}
	c.wg.Wait()
	c.logger.Info("Status projection consumers stopped")
}

// handleMatchFound 매칭 성공 이벤트 반영 (양쪽 사용자 모두)
func (c *Consumer) handleMatchFound(payload []byte) {
	var result models.MatchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		c.logger.Error("Dropping malformed match found event", zap.Error(err))
		return
	}

	for _, userID := range []string{result.UserA, result.UserB} {
		if userID == "" {
			c.logger.Error("Dropping match found event with empty userId",
				zap.String("matchId", result.ID))
			continue
		}

		if applied := c.store.ApplyMatchFound(userID, result); !applied {
			c.logger.Warn("Ignoring match found event outside Matching state",
				zap.String("userId", userID),
				zap.String("matchId", result.ID))
			continue
		}

		c.logger.Info("User matched",
			zap.String("userId", userID),
			zap.String("matchId", result.ID),
			zap.String("topic", result.Topic))
	}
}

// handleDequeue 매칭 취소 이벤트 반영
func (c *Consumer) handleDequeue(payload []byte) {
	var event models.DequeueEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Error("Dropping malformed dequeue event", zap.Error(err))
		return
	}

	if event.UserID == "" {
		c.logger.Error("Dropping dequeue event with empty userId")
		return
	}

	if applied := c.store.ApplyDequeue(event.UserID); !applied {
		c.logger.Debug("Ignoring dequeue event outside Matching state",
			zap.String("userId", event.UserID))
		return
	}

	c.logger.Info("User marked unsuccessful",
		zap.String("userId", event.UserID),
		zap.String("topic", event.Topic))
}
