package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCADO_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCADO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCADO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCADO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MERCADO_DB_DSN"`
	Driver string `envconfig:"MERCADO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MERCADO_DB_HOST"`
	Port     int    `envconfig:"MERCADO_DB_PORT" default:"5432"`
	User     string `envconfig:"MERCADO_DB_USER"`
	Password string `envconfig:"MERCADO_DB_PASSWORD"`
	Name     string `envconfig:"MERCADO_DB_NAME"`
	SSLMode  string `envconfig:"MERCADO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCADO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCADO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCADO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCADO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCADO_REDIS_URL"`
	Address      string        `envconfig:"MERCADO_REDIS_ADDRESS"`
	Password     string        `envconfig:"MERCADO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCADO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCADO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCADO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCADO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCADO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCADO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCADO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCADO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERCADO_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCADO_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	NumberPrefix   string        `envconfig:"MERCADO_ORDER_NUMBER_PREFIX" default:"MD"`
	IdempotencyTTL time.Duration `envconfig:"MERCADO_ORDER_IDEMPOTENCY_TTL" default:"24h"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"MERCADO_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"MERCADO_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"MERCADO_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"MERCADO_OUTBOX_POLL_INTERVAL" default:"500ms"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
