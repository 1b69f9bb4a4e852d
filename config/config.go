package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	JWTSecretKey  string `env:"JWT_SECRET_KEY"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	RedisURL            string        `env:"REDIS_URL"`
	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	R2 R2Config `envPrefix:"R2_"`

	ClassificationPolicy     string `env:"CLASSIFICATION_POLICY" envDefault:"threshold"`
	ClassificationMinTargets int    `env:"CLASSIFICATION_MIN_TARGETS" envDefault:"50"`
	ClassificationSeed       uint64 `env:"CLASSIFICATION_SEED" envDefault:"1"`

	StatusUpdateInterval time.Duration `env:"STATUS_UPDATE_INTERVAL" envDefault:"30s"`
	TxMaxAttempts        int           `env:"TX_MAX_ATTEMPTS" envDefault:"5"`

	OTelEndpoint       string   `env:"OTEL_ENDPOINT"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// R2Config is optional as a group: either every field is set or none is.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	BucketName      string `env:"BUCKET_NAME"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
}

func (c R2Config) empty() bool {
	return c.AccountID == "" && c.AccessKeyID == "" && c.SecretAccessKey == "" &&
		c.BucketName == "" && c.PublicBaseURL == ""
}

func (c R2Config) complete() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.BucketName != "" && c.PublicBaseURL != ""
}

// Enabled reports whether object storage should go to Cloudflare R2.
func (c R2Config) Enabled() bool {
	return c.complete()
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL environment variable is not set"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StorageDriver))
	}

	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY environment variable is not set"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if c.LeaderboardCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("LEADERBOARD_CACHE_TTL must be positive, got %s", c.LeaderboardCacheTTL))
	}
	if c.StatusUpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("STATUS_UPDATE_INTERVAL must be positive, got %s", c.StatusUpdateInterval))
	}
	if c.ClassificationMinTargets < 0 {
		errs = append(errs, fmt.Errorf("CLASSIFICATION_MIN_TARGETS must not be negative, got %d", c.ClassificationMinTargets))
	}
	if c.TxMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1, got %d", c.TxMaxAttempts))
	}
	if !c.R2.empty() && !c.R2.complete() {
		errs = append(errs, errors.New("R2_* settings must be either all set or all empty"))
	}

	return errors.Join(errs...)
}
