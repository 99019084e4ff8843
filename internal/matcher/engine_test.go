package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

// captureBus 발행 이벤트를 기록하는 테스트용 버스
type captureBus struct {
	mu          sync.Mutex
	published   map[string][][]byte
	failPublish bool
}

func newCaptureBus() *captureBus {
	return &captureBus{published: make(map[string][][]byte)}
}

func (b *captureBus) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failPublish {
		return errors.New("publish failed")
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.published[channel] = append(b.published[channel], data)
	return nil
}

func (b *captureBus) Subscribe(ctx context.Context, _ string, _ eventbus.Handler) error {
	<-ctx.Done()
	return nil
}

func (b *captureBus) results(t *testing.T) []models.MatchResult {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []models.MatchResult
	for _, data := range b.published[models.ChannelMatchFoundEvents] {
		var result models.MatchResult
		require.NoError(t, json.Unmarshal(data, &result))
		out = append(out, result)
	}
	return out
}

func (b *captureBus) setFailPublish(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPublish = fail
}

func newTestEngine(bus eventbus.Bus) *Engine {
	return NewEngine(bus, zap.NewNop(), 50*time.Millisecond)
}

func matchEventPayload(t *testing.T, userID, topic string, difficulty models.Difficulty) []byte {
	t.Helper()
	data, err := json.Marshal(models.MatchRequest{
		UserID:     userID,
		Topic:      topic,
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return data
}

func TestEngine_HandleMatchEvent_Enqueues(t *testing.T) {
	e := newTestEngine(newCaptureBus())

	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyEasy))
	e.handleMatchEvent(matchEventPayload(t, "u2", "graphs", models.DifficultyHard))

	assert.Equal(t, map[string]int{"arrays": 1, "graphs": 1}, e.QueueLengths())
}

func TestEngine_HandleMatchEvent_DropsMalformed(t *testing.T) {
	e := newTestEngine(newCaptureBus())

	e.handleMatchEvent([]byte("not json"))
	e.handleMatchEvent([]byte(`{"userID":"","topic":"arrays","difficulty":"Easy"}`))
	e.handleMatchEvent([]byte(`{"userID":"u1","topic":"arrays","difficulty":"Extreme"}`))

	assert.Empty(t, e.QueueLengths())
}

func TestEngine_PairingPass_PublishesMatchResult(t *testing.T) {
	bus := newCaptureBus()
	e := newTestEngine(bus)

	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyMedium))
	e.handleMatchEvent(matchEventPayload(t, "u2", "arrays", models.DifficultyMedium))

	e.runPairingPass(context.Background())

	results := bus.results(t)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].ID)
	assert.Equal(t, "u1", results[0].UserA)
	assert.Equal(t, "u2", results[0].UserB)
	assert.Equal(t, "arrays", results[0].Topic)
	assert.Equal(t, models.DifficultyMedium, results[0].Difficulty)
	assert.False(t, results[0].MatchedAt.IsZero())

	assert.Equal(t, map[string]int{"arrays": 0}, e.QueueLengths())
}

func TestEngine_PairingPass_SkipsIncompatiblePair(t *testing.T) {
	bus := newCaptureBus()
	e := newTestEngine(bus)

	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyEasy))
	e.handleMatchEvent(matchEventPayload(t, "u2", "arrays", models.DifficultyHard))
	e.handleMatchEvent(matchEventPayload(t, "u3", "arrays", models.DifficultyEasy))

	e.runPairingPass(context.Background())

	results := bus.results(t)
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserA)
	assert.Equal(t, "u3", results[0].UserB)

	// u2 (Hard)는 다음 패스까지 잔류
	assert.Equal(t, map[string]int{"arrays": 1}, e.QueueLengths())
}

func TestEngine_PairingPass_RequeuesPairOnPublishFailure(t *testing.T) {
	bus := newCaptureBus()
	e := newTestEngine(bus)

	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyMedium))
	e.handleMatchEvent(matchEventPayload(t, "u2", "arrays", models.DifficultyMedium))

	bus.setFailPublish(true)
	e.runPairingPass(context.Background())

	// 발행 실패 — 페어는 대기열 앞으로 복구
	assert.Empty(t, bus.results(t))
	assert.Equal(t, map[string]int{"arrays": 2}, e.QueueLengths())

	bus.setFailPublish(false)
	e.runPairingPass(context.Background())

	results := bus.results(t)
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserA)
	assert.Equal(t, "u2", results[0].UserB)
	assert.Equal(t, map[string]int{"arrays": 0}, e.QueueLengths())
}

func TestEngine_DequeueBeforePass_EmptiesQueue(t *testing.T) {
	bus := newCaptureBus()
	e := newTestEngine(bus)

	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyMedium))

	dequeue, err := json.Marshal(models.DequeueEvent{UserID: "u1", Topic: "arrays"})
	require.NoError(t, err)
	e.handleDequeueEvent(dequeue)

	e.runPairingPass(context.Background())

	assert.Empty(t, bus.results(t))
	assert.Equal(t, map[string]int{"arrays": 0}, e.QueueLengths())
}

func TestEngine_DequeueRemovesDuplicateSubmissions(t *testing.T) {
	e := newTestEngine(newCaptureBus())

	// 중복 전달로 같은 사용자의 요청이 두 번 쌓인 경우
	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyMedium))
	e.handleMatchEvent(matchEventPayload(t, "u1", "arrays", models.DifficultyMedium))
	assert.Equal(t, map[string]int{"arrays": 2}, e.QueueLengths())

	dequeue, err := json.Marshal(models.DequeueEvent{UserID: "u1", Topic: "arrays"})
	require.NoError(t, err)
	e.handleDequeueEvent(dequeue)

	assert.Equal(t, map[string]int{"arrays": 0}, e.QueueLengths())
}

func TestEngine_StartStop_EndToEnd(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	e := newTestEngine(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var matched []models.MatchResult
	go func() {
		_ = bus.Subscribe(ctx, models.ChannelMatchFoundEvents, func(payload []byte) {
			var result models.MatchResult
			if err := json.Unmarshal(payload, &result); err != nil {
				return
			}
			mu.Lock()
			matched = append(matched, result)
			mu.Unlock()
		})
	}()

	e.Start(ctx)
	defer e.Stop()

	// 구독이 자리잡을 시간을 준 뒤 요청 발행
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, bus.Publish(ctx, models.ChannelMatchEvents, models.MatchRequest{
		UserID: "u1", Topic: "arrays", Difficulty: models.DifficultyEasy,
	}))
	require.NoError(t, bus.Publish(ctx, models.ChannelMatchEvents, models.MatchRequest{
		UserID: "u2", Topic: "arrays", Difficulty: models.DifficultyMedium,
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(matched) == 1 && matched[0].Names("u1") && matched[0].Names("u2")
	}, 2*time.Second, 20*time.Millisecond)
}
