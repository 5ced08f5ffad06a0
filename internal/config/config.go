package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	App      AppConfig   `envPrefix:"APP_"`
	Sim      SimConfig   `envPrefix:"SIM_"`
	Feed     FeedConfig  `envPrefix:"FEED_"`
	Kafka    KafkaConfig `envPrefix:"KAFKA_"`
	JWT      JWTConfig   `envPrefix:"JWT_"`
	RedisURL string      `env:"REDIS_URL"`
	DBURL    string      `env:"DATABASE_URL"`
}

type AppConfig struct {
	Name        string   `env:"NAME" envDefault:"testnet-trader"`
	Environment string   `env:"ENVIRONMENT" envDefault:"development"`
	Port        int      `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	Migrations  string   `env:"MIGRATIONS_PATH" envDefault:"migrations"`
}

// SimConfig controls the execution simulator. Seed 0 means a time-based seed.
type SimConfig struct {
	Seed       uint64 `env:"SEED" envDefault:"0"`
	QuotesFile string `env:"QUOTES_FILE"`
}

type FeedConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	URL     string   `env:"URL" envDefault:"wss://stream.binancefuture.com/stream"`
	Symbols []string `env:"SYMBOLS" envSeparator:"," envDefault:"BTCUSDT,ETHUSDT"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"order-events"`
}

type JWTConfig struct {
	Secret string `env:"SECRET"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps APP_LOG_LEVEL to a slog level, defaulting to info.
func (c AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
