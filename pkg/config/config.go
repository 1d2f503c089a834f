package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "rosewood"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"ROSEWOOD_APP_ENV" required:"true"`
	Port         string `envconfig:"ROSEWOOD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ROSEWOOD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROSEWOOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ROSEWOOD_DB_DSN"`

	Host     string `envconfig:"ROSEWOOD_DB_HOST"`
	Port     int    `envconfig:"ROSEWOOD_DB_PORT" default:"5432"`
	User     string `envconfig:"ROSEWOOD_DB_USER"`
	Password string `envconfig:"ROSEWOOD_DB_PASSWORD"`
	Name     string `envconfig:"ROSEWOOD_DB_NAME"`
	SSLMode  string `envconfig:"ROSEWOOD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROSEWOOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROSEWOOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROSEWOOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROSEWOOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROSEWOOD_REDIS_URL"`
	Address      string        `envconfig:"ROSEWOOD_REDIS_ADDR"`
	Password     string        `envconfig:"ROSEWOOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROSEWOOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROSEWOOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROSEWOOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROSEWOOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROSEWOOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROSEWOOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROSEWOOD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROSEWOOD_JWT_ISSUER" default:"rosewood-auth"`
	ExpirationMinutes int    `envconfig:"ROSEWOOD_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROSEWOOD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ROSEWOOD_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	LedgerTopic        string `envconfig:"ROSEWOOD_PUBSUB_LEDGER_TOPIC" default:"rw-ledger-events"`
	LedgerSubscription string `envconfig:"ROSEWOOD_PUBSUB_LEDGER_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ROSEWOOD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ROSEWOOD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ROSEWOOD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, part := range []struct {
		name  string
		value string
	}{
		{"ROSEWOOD_DB_HOST", db.Host},
		{"ROSEWOOD_DB_USER", db.User},
		{"ROSEWOOD_DB_NAME", db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ROSEWOOD_DB_DSN or %s are required", strings.Join(missing, ", "))
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
