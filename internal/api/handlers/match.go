package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/models"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/projection"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

// MatchHandler 매칭 요청/상태 조회 핸들러
type MatchHandler struct {
	bus    eventbus.Bus
	store  *projection.Store
	logger *zap.Logger
}

// NewMatchHandler 매칭 핸들러 생성
func NewMatchHandler(bus eventbus.Bus, store *projection.Store, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		bus:    bus,
		store:  store,
		logger: logger,
	}
}

type findMatchRequest struct {
	Topic      string            `json:"topic"`
	Difficulty models.Difficulty `json:"difficulty"`
}

// FindMatch 매칭 요청 접수
// 이벤트 발행 후 즉시 응답. 페어링 결과는 match-status 폴링으로 확인한다.
func (h *MatchHandler) FindMatch(c *gin.Context) {
	userID := c.GetString("userId")

	var body findMatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if body.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Topic is required"})
		return
	}
	if !body.Difficulty.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Difficulty must be Easy, Medium or Hard"})
		return
	}

	// 이미 대기 중인 사용자의 중복 요청은 거부
	if h.store.Status(userID) == models.StatusMatching {
		c.JSON(http.StatusConflict, gin.H{"message": "Match request already in progress"})
		return
	}

	req := models.MatchRequest{
		UserID:     userID,
		Topic:      body.Topic,
		Difficulty: body.Difficulty,
		EnqueuedAt: time.Now(),
	}

	if err := h.bus.Publish(c.Request.Context(), models.ChannelMatchEvents, req); err != nil {
		h.logger.Error("Failed to publish match request",
			zap.String("userId", userID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to submit match request"})
		return
	}

	h.store.SetMatching(userID, body.Topic)

	h.logger.Info("Match request accepted",
		zap.String("userId", userID),
		zap.String("topic", body.Topic),
		zap.String("difficulty", string(body.Difficulty)))

	c.JSON(http.StatusOK, gin.H{"message": "Received match request"})
}

// MatchStatus 현재 매칭 상태 조회
func (h *MatchHandler) MatchStatus(c *gin.Context) {
	userID := c.GetString("userId")

	c.JSON(http.StatusOK, gin.H{
		"matchStatus": h.store.Status(userID),
	})
}

// WaitingTime 대기 경과 시간(초) 조회
func (h *MatchHandler) WaitingTime(c *gin.Context) {
	userID := c.GetString("userId")

	seconds, exists := h.store.WaitingSeconds(userID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "User is not in the match queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"waitingTime": seconds})
}

// CancelMatching 매칭 취소 요청
// dequeue 이벤트만 발행한다. 로컬 상태는 해당 이벤트를 소비할 때 바뀐다.
func (h *MatchHandler) CancelMatching(c *gin.Context) {
	userID := c.GetString("userId")

	topic, exists := h.store.RequestedTopic(userID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "No match request to cancel"})
		return
	}

	event := models.DequeueEvent{
		UserID: userID,
		Topic:  topic,
	}

	if err := h.bus.Publish(c.Request.Context(), models.ChannelDequeueEvents, event); err != nil {
		h.logger.Error("Failed to publish dequeue event",
			zap.String("userId", userID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to cancel matching"})
		return
	}

	h.logger.Info("Cancel request accepted",
		zap.String("userId", userID),
		zap.String("topic", topic))

	c.JSON(http.StatusOK, gin.H{"message": "Received cancel request"})
}

// ResetStatus 상태를 NotMatching으로 초기화
func (h *MatchHandler) ResetStatus(c *gin.Context) {
	userID := c.GetString("userId")

	h.store.Reset(userID)

	c.JSON(http.StatusOK, gin.H{"message": "Reset match status to not matching"})
}

// MatchResult 마지막 매칭 결과 조회
func (h *MatchHandler) MatchResult(c *gin.Context) {
	userID := c.GetString("userId")

	result, exists := h.store.Result(userID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"message": "No match result found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResetAllStatuses 모든 사용자 상태 초기화 (관리용)
func (h *MatchHandler) ResetAllStatuses(c *gin.Context) {
	h.store.ResetAll()

	c.JSON(http.StatusOK, gin.H{"message": "Match status reset successfully"})
}
