package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries everything the server reads from the environment. Adapter
// credentials are optional; an adapter with missing credentials reports
// itself as not configured and its endpoints answer 503.
type Config struct {
	Addr    string `env:"SETTLE_ADDR" envDefault:":8080"`
	PGDSN   string `env:"SETTLE_PG_DSN"`
	Version string `env:"SETTLE_VERSION" envDefault:"dev"`

	// Transient shared state lives in Redis when set; in-process otherwise.
	RedisAddr string `env:"SETTLE_REDIS_ADDR"`

	RateBurst  int `env:"SETTLE_RATE_BURST" envDefault:"50"`
	RatePerSec int `env:"SETTLE_RATE_PER_SEC" envDefault:"25"`

	// Vendor adapters.
	VOIBaseURL      string `env:"SETTLE_VOI_BASE_URL"`
	VOIAPIKey       string `env:"SETTLE_VOI_API_KEY"`
	SMSBaseURL      string `env:"SETTLE_SMS_BASE_URL"`
	SMSAPIKey       string `env:"SETTLE_SMS_API_KEY"`
	SMSSender       string `env:"SETTLE_SMS_SENDER" envDefault:"Settleline"`
	EmailBaseURL    string `env:"SETTLE_EMAIL_BASE_URL"`
	EmailAPIKey     string `env:"SETTLE_EMAIL_API_KEY"`
	EmailFrom       string `env:"SETTLE_EMAIL_FROM" envDefault:"noreply@settleline.app"`
	MapBaseURL      string `env:"SETTLE_MAP_BASE_URL"`
	MapAPIKey       string `env:"SETTLE_MAP_API_KEY"`
	PracticeBaseURL string `env:"SETTLE_PRACTICE_BASE_URL"`
	PracticeAPIKey  string `env:"SETTLE_PRACTICE_API_KEY"`
	FeedBaseURL     string `env:"SETTLE_FEED_BASE_URL"`
	FeedAPIKey      string `env:"SETTLE_FEED_API_KEY"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
