package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const PROD_STRING = "prod"

// Supported values of LEDGER_STORE.
const (
	LedgerStorePostgres = "postgres"
	LedgerStoreMongo    = "mongo"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	ProdOrigins string `envconfig:"PROD_ORIGINS"`

	DB        DBConfig
	Mongo     MongoConfig
	JWT       JWTConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	// LedgerStore selects which store backs resources and bookings.
	LedgerStore string `envconfig:"LEDGER_STORE" default:"postgres"`
}

type DBConfig struct {
	DSN         string `envconfig:"DB_DSN" required:"true"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	MaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"10"`
}

type MongoConfig struct {
	URI         string `envconfig:"MONGODB_URI"`
	FallbackURI string `envconfig:"MONGODB_URI_FALLBACK"`
	DBName      string `envconfig:"MONGODB_DB_NAME" default:"evently"`
}

type JWTConfig struct {
	Secret         string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`
}

type RabbitMQConfig struct {
	URL            string        `envconfig:"RABBITMQ_URL"`
	PublishTimeout time.Duration `envconfig:"RABBITMQ_PUBLISH_TIMEOUT" default:"5s"`
}

type RateLimitConfig struct {
	RPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err.Error())
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations that struct tags cannot express.
func (c *Config) Validate() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	c.LedgerStore = strings.ToLower(strings.TrimSpace(c.LedgerStore))
	switch c.LedgerStore {
	case LedgerStorePostgres:
	case LedgerStoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when LEDGER_STORE=%s", LedgerStoreMongo)
		}
	default:
		return fmt.Errorf("invalid LEDGER_STORE %q: want %s or %s", c.LedgerStore, LedgerStorePostgres, LedgerStoreMongo)
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
