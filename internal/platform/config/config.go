package config

import (
	"log/slog"
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogLevel      slog.Level
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  string
	KafkaTopic    string
	JWTSigningKey string
}

// StatusCacheTTL bounds staleness of the cached batch status view.
var StatusCacheTTL = 30 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PHARMATRACE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	level := slog.LevelInfo
	if os.Getenv("PHARMATRACE_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	topic := os.Getenv("PHARMATRACE_KAFKA_TOPIC")
	if topic == "" {
		topic = "pharmatrace.events"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		LogLevel:      level,
		PostgresDSN:   os.Getenv("PHARMATRACE_POSTGRES_DSN"),
		RedisURL:      os.Getenv("PHARMATRACE_REDIS_URL"),
		KafkaBrokers:  os.Getenv("PHARMATRACE_KAFKA_BROKERS"),
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
	}
}
