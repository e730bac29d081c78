package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MUHAMMEDJasir72/MindEase/internal/services"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBUrl     string `env:"DB_URL"`
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CommissionRate      decimal.Decimal `env:"COMMISSION_RATE" envDefault:"0.20"`
	CancellationWindow  time.Duration   `env:"CANCELLATION_WINDOW" envDefault:"1h"`
	SessionGracePeriod  time.Duration   `env:"SESSION_GRACE_PERIOD" envDefault:"1h"`
	SweepInterval       time.Duration   `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepOnRead         bool            `env:"SWEEP_ON_READ" envDefault:"true"`
	SweepBatchSize      int             `env:"SWEEP_BATCH_SIZE" envDefault:"100"`
	MinWithdrawalAmount int64           `env:"MIN_WITHDRAWAL_AMOUNT" envDefault:"500"`
	SessionTimezone     string          `env:"SESSION_TIMEZONE" envDefault:"UTC"`
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return parse()
}

func parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppEnv = normalizeEnv(cfg.AppEnv)

	if cfg.CommissionRate.IsNegative() || cfg.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("COMMISSION_RATE must be between 0 and 1, got %s", cfg.CommissionRate)
	}
	if cfg.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}
	if _, err := time.LoadLocation(cfg.SessionTimezone); err != nil {
		return nil, fmt.Errorf("SESSION_TIMEZONE: %w", err)
	}
	return &cfg, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// Policy converts the business settings into the services' policy.
func (c *Config) Policy() services.Policy {
	loc, err := time.LoadLocation(c.SessionTimezone)
	if err != nil {
		loc = time.UTC
	}
	return services.Policy{
		CommissionRate:     c.CommissionRate,
		CancellationWindow: c.CancellationWindow,
		GracePeriod:        c.SessionGracePeriod,
		MinWithdrawal:      c.MinWithdrawalAmount,
		SweepBatchSize:     c.SweepBatchSize,
		SweepOnRead:        c.SweepOnRead,
		Location:           loc,
	}
}

func (c *Config) RedisEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
