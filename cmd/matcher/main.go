package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/api"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/config"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/matcher"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/eventbus"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/pkg/logger"
)

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 로거 초기화
	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	// 매처는 게이트웨이와 다른 포트 사용
	port := cfg.Port
	if p := os.Getenv("MATCHER_PORT"); p != "" {
		port = p
	}

	logger.Info("Starting matching engine",
		"port", port,
		"env", cfg.Env,
		"interval", cfg.MatchInterval,
	)

	// Redis 연결
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Invalid Redis URL", "error", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	logger.Info("Redis connection established")

	// 엔진 시작
	bus := eventbus.NewRedisBus(client, logger.L(), cfg.PublishRetries, cfg.PublishBackoff)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := matcher.NewEngine(bus, logger.L(), cfg.MatchInterval)
	engine.Start(ctx)

	// 상태 확인용 HTTP 서버
	router := api.SetupMatcherRouter(cfg, engine)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown 대기
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down matcher...")

	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Matcher exited")
}
