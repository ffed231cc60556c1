package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Admin
	AdminToken string

	// Matching
	MatchingInterval   time.Duration
	MatchingShardCount int
	MatchingMinScore   float64
	MatchingMaxMatches int
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		MatchingInterval:   parseDuration(getEnv("MATCHING_INTERVAL", "30s"), 30*time.Second),
		MatchingShardCount: parseInt(getEnv("MATCHING_SHARD_COUNT", "4"), 4),
		MatchingMinScore:   parseFloat(getEnv("MATCHING_MIN_SCORE", "0.5"), 0.5),
		MatchingMaxMatches: parseInt(getEnv("MATCHING_MAX_MATCHES", "100"), 100),
		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
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

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseFloat(s string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
