package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NEARCART_DB_DSN"
	EnvDBHost = "NEARCART_DB_HOST"
	EnvDBUser = "NEARCART_DB_USER"
	EnvDBName = "NEARCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Engine       EngineConfig
	Withdrawal   WithdrawalConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEARCART_FEATURE_AUTO_MIGRATE" default:"false"`
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
	Env          string `envconfig:"NEARCART_APP_ENV" required:"true"`
	Port         string `envconfig:"NEARCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEARCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEARCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEARCART_DB_DSN"`
	Driver string `envconfig:"NEARCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEARCART_DB_HOST"`
	LegacyPort     int    `envconfig:"NEARCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEARCART_DB_USER"`
	LegacyPassword string `envconfig:"NEARCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEARCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEARCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEARCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEARCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEARCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEARCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEARCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEARCART_REDIS_ADDR"`
	Password     string        `envconfig:"NEARCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEARCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEARCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEARCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEARCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEARCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEARCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEARCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEARCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEARCART_JWT_EXPIRATION_MINUTES" default:"60"`
}

// EngineConfig tunes the order-lifecycle and settlement engine.
type EngineConfig struct {
	Currency         string        `envconfig:"NEARCART_ENGINE_CURRENCY" default:"USD"`
	ReturnableDays   int           `envconfig:"NEARCART_ENGINE_RETURNABLE_DAYS" default:"7"`
	RequestBudget    time.Duration `envconfig:"NEARCART_ENGINE_REQUEST_BUDGET" default:"15s"`
	DeadlockAttempts int           `envconfig:"NEARCART_ENGINE_DEADLOCK_ATTEMPTS" default:"3"`
	PlacedOrderTTL   time.Duration `envconfig:"NEARCART_ENGINE_PLACED_ORDER_TTL" default:"240h"`
	IdempotencyTTL   time.Duration `envconfig:"NEARCART_ENGINE_IDEMPOTENCY_TTL" default:"168h"`
}

type WithdrawalConfig struct {
	MinAmount string `envconfig:"NEARCART_WITHDRAWAL_MIN_AMOUNT" default:"1.00"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"NEARCART_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"NEARCART_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"NEARCART_PUBSUB_DOMAIN_TOPIC" default:"nearcart-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NEARCART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NEARCART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NEARCART_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"NEARCART_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"NEARCART_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
