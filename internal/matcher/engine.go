package matcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

// Engine 매칭 요청 접수 및 주기적 페어링 엔진
// match-events / dequeue-events를 소비하고 match-found-events를 발행한다
type Engine struct {
	bus      eventbus.Bus
	queues   *queueSet
	logger   *zap.Logger
	interval time.Duration

	stopChan  chan struct{}
	cancelSub context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewEngine 매칭 엔진 생성
func NewEngine(bus eventbus.Bus, logger *zap.Logger, interval time.Duration) *Engine {
	return &Engine{
		bus:      bus,
		queues:   newQueueSet(),
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start 소비 루프와 페어링 루프 시작
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	e.cancelSub = cancel

	e.logger.Info("Starting matching engine", zap.Duration("interval", e.interval))

	e.wg.Add(3)

	go func() {
		defer e.wg.Done()
		if err := e.bus.Subscribe(subCtx, models.ChannelMatchEvents, e.handleMatchEvent); err != nil {
			e.logger.Error("Match event consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		defer e.wg.Done()
		if err := e.bus.Subscribe(subCtx, models.ChannelDequeueEvents, e.handleDequeueEvent); err != nil {
			e.logger.Error("Dequeue event consumer stopped", zap.Error(err))
		}
	}()

	go e.pairingLoop(subCtx)
}

// Stop 엔진 중지 (모든 루프 종료까지 대기)
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.logger.Info("Stopping matching engine")
	close(e.stopChan)
	if e.cancelSub != nil {
		e.cancelSub()
	}
	e.wg.Wait()
	e.logger.Info("Matching engine stopped")
}

// QueueLengths 토픽별 대기열 길이 (디버그 엔드포인트용)
func (e *Engine) QueueLengths() map[string]int {
	return e.queues.lengths()
}

// pairingLoop 주기적 페어링 실행
// 단일 고루틴에서만 실행되므로 패스끼리 겹치지 않는다
func (e *Engine) pairingLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.runPairingPass(ctx)
		case <-e.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleMatchEvent 매칭 요청 이벤트 처리
// 파싱/검증 실패한 페이로드는 로깅 후 버린다
func (e *Engine) handleMatchEvent(payload []byte) {
	var req models.MatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		e.logger.Error("Dropping malformed match event", zap.Error(err))
		return
	}

	if err := req.Validate(); err != nil {
		e.logger.Error("Dropping invalid match event",
			zap.String("userId", req.UserID),
			zap.String("topic", req.Topic),
			zap.Error(err))
		return
	}

	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}

	length := e.queues.get(req.Topic).append(req)

	e.logger.Info("Match request enqueued",
		zap.String("userId", req.UserID),
		zap.String("topic", req.Topic),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("queueLength", length))
}

// handleDequeueEvent 매칭 취소 이벤트 처리
// 중복 엔트리까지 포함해 해당 사용자의 요청을 전부 제거한다
func (e *Engine) handleDequeueEvent(payload []byte) {
	var event models.DequeueEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		e.logger.Error("Dropping malformed dequeue event", zap.Error(err))
		return
	}

	if err := event.Validate(); err != nil {
		e.logger.Error("Dropping invalid dequeue event", zap.Error(err))
		return
	}

	removed := e.queues.get(event.Topic).removeUser(event.UserID)

	e.logger.Info("User removed from queue",
		zap.String("userId", event.UserID),
		zap.String("topic", event.Topic),
		zap.Int("removed", removed))
}

// runPairingPass 모든 토픽에 대해 페어링 패스 1회 실행
func (e *Engine) runPairingPass(ctx context.Context) {
	for _, topic := range e.queues.topics() {
		e.pairTopic(ctx, topic)
	}
}

// pairTopic 단일 토픽 페어링
func (e *Engine) pairTopic(ctx context.Context, topic string) {
	q := e.queues.get(topic)
	pairs := q.pairScan()

	for _, pair := range pairs {
		result := models.MatchResult{
			ID:              uuid.New().String(),
			UserA:           pair[0].UserID,
			UserADifficulty: pair[0].Difficulty,
			UserB:           pair[1].UserID,
			UserBDifficulty: pair[1].Difficulty,
			Topic:           topic,
			Difficulty:      pair[0].Difficulty,
			MatchedAt:       time.Now(),
		}

		if err := e.bus.Publish(ctx, models.ChannelMatchFoundEvents, result); err != nil {
			// 발행 실패 시 두 요청을 대기열 앞으로 복구해 다음 패스에서 재시도
			e.logger.Error("Failed to publish match result, requeueing pair",
				zap.String("userA", result.UserA),
				zap.String("userB", result.UserB),
				zap.String("topic", topic),
				zap.Error(err))
			q.requeueFront(pair[0], pair[1])
			continue
		}

		e.logger.Info("Match found",
			zap.String("matchId", result.ID),
			zap.String("userA", result.UserA),
			zap.String("userB", result.UserB),
			zap.String("topic", topic),
			zap.String("difficulty", string(result.Difficulty)))
	}
}
