package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck 서비스 상태 확인
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// QueueReporter 토픽별 대기열 길이 제공자
type QueueReporter interface {
	QueueLengths() map[string]int
}

// Queues 토픽별 대기열 길이 조회 (매처 디버그용)
func Queues(reporter QueueReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"queues": reporter.QueueLengths(),
		})
	}
}
