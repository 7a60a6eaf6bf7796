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
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Idempotency  IdempotencyConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Sync         SyncConfig
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
	Env          string   `envconfig:"DOUMAI_APP_ENV" required:"true"`
	Port         string   `envconfig:"DOUMAI_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DOUMAI_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DOUMAI_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DOUMAI_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"DOUMAI_DB_DSN"`

	LegacyHost     string `envconfig:"DOUMAI_DB_HOST"`
	LegacyPort     int    `envconfig:"DOUMAI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DOUMAI_DB_USER"`
	LegacyPassword string `envconfig:"DOUMAI_DB_PASSWORD"`
	LegacyName     string `envconfig:"DOUMAI_DB_NAME"`
	LegacySSLMode  string `envconfig:"DOUMAI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DOUMAI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DOUMAI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DOUMAI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DOUMAI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DOUMAI_REDIS_URL" required:"true"`
	Password     string        `envconfig:"DOUMAI_REDIS_PASSWORD"`
	DB           int           `envconfig:"DOUMAI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DOUMAI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DOUMAI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DOUMAI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DOUMAI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DOUMAI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig describes how access tokens minted by the hosted identity
// provider are verified.
type AuthConfig struct {
	JWTSecret string        `envconfig:"DOUMAI_AUTH_JWT_SECRET" required:"true"`
	Issuer    string        `envconfig:"DOUMAI_AUTH_ISSUER" required:"true"`
	Audience  string        `envconfig:"DOUMAI_AUTH_AUDIENCE" default:"authenticated"`
	ClockSkew time.Duration `envconfig:"DOUMAI_AUTH_CLOCK_SKEW" default:"30s"`
}

type RateLimitConfig struct {
	Window      time.Duration `envconfig:"DOUMAI_RATE_LIMIT_WINDOW" default:"1m"`
	TenantLimit int           `envconfig:"DOUMAI_RATE_LIMIT_TENANT_LIMIT" default:"600"`
	BatchLimit  int           `envconfig:"DOUMAI_RATE_LIMIT_BATCH_LIMIT" default:"30"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"DOUMAI_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate     bool `envconfig:"DOUMAI_AUTO_MIGRATE" default:"false"`
	OnboardingSeeds bool `envconfig:"DOUMAI_ONBOARDING_SEEDS" default:"true"`
}

type LedgerConfig struct {
	BatchMaxSKUs int `envconfig:"DOUMAI_LEDGER_BATCH_MAX_SKUS" default:"200"`
}

type SyncConfig struct {
	Interval        time.Duration `envconfig:"DOUMAI_SYNC_WORKER_INTERVAL" default:"5s"`
	CompletionDelay time.Duration `envconfig:"DOUMAI_SYNC_COMPLETION_DELAY" default:"3s"`
	MaxRetries      int           `envconfig:"DOUMAI_SYNC_MAX_RETRIES" default:"3"`
	LockTTL         time.Duration `envconfig:"DOUMAI_SYNC_LOCK_TTL" default:"30s"`
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
