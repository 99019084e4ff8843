package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Redis (이벤트 버스)
	RedisURL string

	// Auth
	AuthMode       string // "remote": user-service 호출, "local": JWT 직접 검증
	UserServiceURL string
	JWTSecret      string
	JWTExpiration  time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Matching
	MatchInterval  time.Duration
	PublishRetries int
	PublishBackoff time.Duration
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "3002"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		AuthMode:           getEnv("AUTH_MODE", "remote"),
		UserServiceURL:     getEnv("USER_SERVICE_URL", "http://user-service:3001"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		CORSAllowedOrigins: splitEnv(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MatchInterval:      parseDuration(getEnv("MATCH_INTERVAL", "2s"), 2*time.Second),
		PublishRetries:     3,
		PublishBackoff:     100 * time.Millisecond,
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitEnv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
