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
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/auth"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/config"
	"github.com/CS3219-AY2425S1/cs3219-ay2425s1-project-g21/internal/projection"
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

	logger.Info("Starting matching gateway",
		"port", cfg.Port,
		"env", cfg.Env,
		"authMode", cfg.AuthMode,
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

	// 이벤트 버스 및 프로젝션 초기화
	bus := eventbus.NewRedisBus(client, logger.L(), cfg.PublishRetries, cfg.PublishBackoff)
	store := projection.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := projection.NewConsumer(bus, store, logger.L())
	consumer.Start(ctx)

	// 인증 검증기 선택
	var verifier auth.Verifier
	if cfg.AuthMode == "local" {
		verifier = auth.NewLocalVerifier(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		verifier = auth.NewRemoteVerifier(cfg.UserServiceURL)
	}

	// 라우터 및 서버 설정
	router := api.SetupRouter(cfg, bus, store, verifier, logger.L())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 서버 시작 (고루틴)
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

	logger.Info("Shutting down gateway...")

	consumer.Stop()

	// 10초 타임아웃으로 종료
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Gateway exited")
}
