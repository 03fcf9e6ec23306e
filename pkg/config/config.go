package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PLAYABARS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv        = "PLAYABARS_APP_ENV"
	EnvPort          = "PLAYABARS_APP_PORT"
	EnvPublicBaseURL = "PLAYABARS_PUBLIC_BASE_URL"
	EnvDBDSN         = "PLAYABARS_DB_DSN"
	EnvRedisURL      = "PLAYABARS_REDIS_URL"
	EnvJWTSecret     = "PLAYABARS_JWT_SECRET"
	EnvJWTIssuer     = "PLAYABARS_JWT_ISSUER"
	EnvJWTExpMins    = "PLAYABARS_JWT_EXPIRATION_MINUTES"
	EnvStripeAPIKey  = "PLAYABARS_STRIPE_API_KEY"
	EnvStripeSecret  = "PLAYABARS_STRIPE_WEBHOOK_SECRET"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"PLAYABARS_APP_ENV" required:"true"`
	Port          string `envconfig:"PLAYABARS_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"PLAYABARS_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"PLAYABARS_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"PLAYABARS_PUBLIC_BASE_URL"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PLAYABARS_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"PLAYABARS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLAYABARS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLAYABARS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLAYABARS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLAYABARS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLAYABARS_REDIS_ADDR"`
	Password     string        `envconfig:"PLAYABARS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLAYABARS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLAYABARS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLAYABARS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLAYABARS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLAYABARS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLAYABARS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLAYABARS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLAYABARS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLAYABARS_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PLAYABARS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PLAYABARS_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"PLAYABARS_STRIPE_API_KEY"`
	Secret         string        `envconfig:"PLAYABARS_STRIPE_WEBHOOK_SECRET"`
	Env            string        `envconfig:"PLAYABARS_STRIPE_ENV" default:"test"`
	PlatformFeeBps int64         `envconfig:"PLAYABARS_STRIPE_PLATFORM_FEE_BPS" default:"300"`
	RequestTimeout time.Duration `envconfig:"PLAYABARS_STRIPE_REQUEST_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CronConfig struct {
	ReconcileInterval time.Duration `envconfig:"PLAYABARS_CRON_RECONCILE_INTERVAL" default:"1h"`
	ReconcileLookback time.Duration `envconfig:"PLAYABARS_CRON_RECONCILE_LOOKBACK" default:"168h"`
	ReconcileLimit    int           `envconfig:"PLAYABARS_CRON_RECONCILE_LIMIT" default:"250"`
	LockTTL           time.Duration `envconfig:"PLAYABARS_CRON_LOCK_TTL" default:"10m"`
}
