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
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Billing       BillingConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"MAZIWA_APP_ENV" required:"true"`
	Port         string `envconfig:"MAZIWA_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"MAZIWA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAZIWA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MAZIWA_DB_DSN"`

	Host     string `envconfig:"MAZIWA_DB_HOST"`
	Port     int    `envconfig:"MAZIWA_DB_PORT" default:"5432"`
	User     string `envconfig:"MAZIWA_DB_USER"`
	Password string `envconfig:"MAZIWA_DB_PASSWORD"`
	Name     string `envconfig:"MAZIWA_DB_NAME"`
	SSLMode  string `envconfig:"MAZIWA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAZIWA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAZIWA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAZIWA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAZIWA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either MAZIWA_DB_DSN or MAZIWA_DB_HOST/USER/NAME must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MAZIWA_REDIS_URL"`
	Address      string        `envconfig:"MAZIWA_REDIS_ADDR"`
	Password     string        `envconfig:"MAZIWA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAZIWA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAZIWA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAZIWA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAZIWA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAZIWA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAZIWA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MAZIWA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MAZIWA_JWT_ISSUER" default:"maziwa-backend"`
	ExpirationMinutes int    `envconfig:"MAZIWA_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MAZIWA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"MAZIWA_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MAZIWA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MAZIWA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIPLimit    int           `envconfig:"MAZIWA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type BillingConfig struct {
	TrialDays          int           `envconfig:"MAZIWA_BILLING_TRIAL_DAYS" default:"30"`
	ExpiryWarningDays  int           `envconfig:"MAZIWA_BILLING_EXPIRY_WARNING_DAYS" default:"7"`
	CallbackDedupeTTL  time.Duration `envconfig:"MAZIWA_BILLING_CALLBACK_DEDUPE_TTL" default:"168h"`
	MpesaAccountRef    string        `envconfig:"MAZIWA_MPESA_ACCOUNT_REF" default:"Maziwa Subscription"`
	MpesaCallbackToken string        `envconfig:"MAZIWA_MPESA_CALLBACK_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAZIWA_AUTO_MIGRATE" default:"false"`
}
