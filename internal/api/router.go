package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/api/handlers"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/api/middleware"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/auth"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/config"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/projection"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
)

// SetupRouter 게이트웨이 라우터 설정
func SetupRouter(cfg *config.Config, bus eventbus.Bus, store *projection.Store, verifier auth.Verifier, log *zap.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	matchHandler := handlers.NewMatchHandler(bus, store, log)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// 매칭 라우트 (인증 필수)
	authed := router.Group("/")
	authed.Use(middleware.Auth(verifier))
	{
		authed.POST("/find-match", matchHandler.FindMatch)
		authed.GET("/match-status", matchHandler.MatchStatus)
		authed.GET("/waiting-time", matchHandler.WaitingTime)
		authed.POST("/cancel-matching", matchHandler.CancelMatching)
		authed.POST("/reset-status", matchHandler.ResetStatus)
		authed.GET("/match-result", matchHandler.MatchResult)
	}

	// 관리용 전체 초기화 (인증 없음)
	router.GET("/reset-match-statuses", matchHandler.ResetAllStatuses)

	return router
}

// SetupMatcherRouter 매처 프로세스의 상태 확인 라우터
func SetupMatcherRouter(cfg *config.Config, reporter handlers.QueueReporter) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/queues", handlers.Queues(reporter))

	return router
}
