package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

func startTestConsumer(t *testing.T) (*eventbus.MemoryBus, *Store, context.Context) {
	t.Helper()

	bus := eventbus.NewMemoryBus()
	store := NewStore()

	ctx, cancel := context.WithCancel(context.Background())

	consumer := NewConsumer(bus, store, zap.NewNop())
	consumer.Start(ctx)

	t.Cleanup(func() {
		consumer.Stop()
		cancel()
	})

	// 구독이 자리잡을 시간
	time.Sleep(20 * time.Millisecond)

	return bus, store, ctx
}

func TestConsumer_MatchFoundUpdatesBothUsers(t *testing.T) {
	bus, store, ctx := startTestConsumer(t)

	store.SetMatching("u1", "arrays")
	store.SetMatching("u2", "arrays")

	result := models.MatchResult{
		ID:              "m1",
		UserA:           "u1",
		UserADifficulty: models.DifficultyEasy,
		UserB:           "u2",
		UserBDifficulty: models.DifficultyMedium,
		Topic:           "arrays",
		Difficulty:      models.DifficultyEasy,
		MatchedAt:       time.Now(),
	}
	require.NoError(t, bus.Publish(ctx, models.ChannelMatchFoundEvents, result))

	assert.Eventually(t, func() bool {
		return store.Status("u1") == models.StatusMatched &&
			store.Status("u2") == models.StatusMatched
	}, 2*time.Second, 10*time.Millisecond)

	stored, exists := store.Result("u1")
	require.True(t, exists)
	assert.Equal(t, "m1", stored.ID)
}

func TestConsumer_DequeueMarksUnsuccessful(t *testing.T) {
	bus, store, ctx := startTestConsumer(t)

	store.SetMatching("u1", "arrays")

	require.NoError(t, bus.Publish(ctx, models.ChannelDequeueEvents, models.DequeueEvent{
		UserID: "u1",
		Topic:  "arrays",
	}))

	assert.Eventually(t, func() bool {
		return store.Status("u1") == models.StatusUnsuccessful
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumer_MalformedEventsDoNotKillLoop(t *testing.T) {
	bus, store, ctx := startTestConsumer(t)

	store.SetMatching("u1", "arrays")

	// 깨진 페이로드는 버려지고 루프는 계속 동작해야 한다
	require.NoError(t, bus.Publish(ctx, models.ChannelMatchFoundEvents, "not an object"))

	require.NoError(t, bus.Publish(ctx, models.ChannelMatchFoundEvents, models.MatchResult{
		ID:    "m1",
		UserA: "u1",
		UserB: "u2",
		Topic: "arrays",
	}))

	assert.Eventually(t, func() bool {
		return store.Status("u1") == models.StatusMatched
	}, 2*time.Second, 10*time.Millisecond)
}
