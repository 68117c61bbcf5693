package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix scopes every environment variable consumed by the service.
const EnvPrefix = "WORLDLEADER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "WORLDLEADER_DB_DSN"
	EnvDBHost = "WORLDLEADER_DB_HOST"
	EnvDBUser = "WORLDLEADER_DB_USER"
	EnvDBName = "WORLDLEADER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Purchase      PurchaseConfig
	Leaderboard   LeaderboardConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Mail          MailConfig
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
	Env          string `envconfig:"WORLDLEADER_APP_ENV" required:"true"`
	Port         string `envconfig:"WORLDLEADER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WORLDLEADER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WORLDLEADER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"WORLDLEADER_DB_DSN"`

	LegacyHost     string `envconfig:"WORLDLEADER_DB_HOST"`
	LegacyPort     int    `envconfig:"WORLDLEADER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WORLDLEADER_DB_USER"`
	LegacyPassword string `envconfig:"WORLDLEADER_DB_PASSWORD"`
	LegacyName     string `envconfig:"WORLDLEADER_DB_NAME"`
	LegacySSLMode  string `envconfig:"WORLDLEADER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WORLDLEADER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WORLDLEADER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WORLDLEADER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WORLDLEADER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WORLDLEADER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WORLDLEADER_REDIS_ADDR"`
	Password     string        `envconfig:"WORLDLEADER_REDIS_PASSWORD"`
	DB           int           `envconfig:"WORLDLEADER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WORLDLEADER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WORLDLEADER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WORLDLEADER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WORLDLEADER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WORLDLEADER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"WORLDLEADER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"WORLDLEADER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"WORLDLEADER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"WORLDLEADER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WORLDLEADER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WORLDLEADER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WORLDLEADER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WORLDLEADER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WORLDLEADER_ARGON_KEY_LEN" default:"32"`

	ResetTokenTTL time.Duration `envconfig:"WORLDLEADER_RESET_TOKEN_TTL" default:"1h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginEmailLimit    int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"15m"`
	RegisterEmailLimit int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ForgotWindow       time.Duration `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_FORGOT_WINDOW" default:"1h"`
	ForgotEmailLimit   int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_FORGOT_EMAIL_LIMIT" default:"3"`
	ForgotIPLimit      int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_FORGOT_IP_LIMIT" default:"10"`
	ResetWindow        time.Duration `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_RESET_WINDOW" default:"1h"`
	ResetIPLimit       int           `envconfig:"WORLDLEADER_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"5"`
}

type PurchaseConfig struct {
	MaxAmountUsd    string        `envconfig:"WORLDLEADER_PURCHASE_MAX_AMOUNT_USD" default:"10000"`
	RateLimitWindow time.Duration `envconfig:"WORLDLEADER_PURCHASE_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitCount  int           `envconfig:"WORLDLEADER_PURCHASE_RATE_LIMIT_COUNT" default:"10"`
}

// MaxAmount parses the configured purchase cap into a decimal.
func (p PurchaseConfig) MaxAmount() (decimal.Decimal, error) {
	max, err := decimal.NewFromString(strings.TrimSpace(p.MaxAmountUsd))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid purchase cap %q: %w", p.MaxAmountUsd, err)
	}
	if max.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("purchase cap must be positive, got %q", p.MaxAmountUsd)
	}
	return max, nil
}

type LeaderboardConfig struct {
	DefaultLimit int `envconfig:"WORLDLEADER_LEADERBOARD_DEFAULT_LIMIT" default:"100"`
	MaxLimit     int `envconfig:"WORLDLEADER_LEADERBOARD_MAX_LIMIT" default:"100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"WORLDLEADER_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"WORLDLEADER_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WORLDLEADER_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WORLDLEADER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WORLDLEADER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"WORLDLEADER_PUBSUB_NOTIFICATION_TOPIC" default:"wl-notification-events"`
	NotificationSubscription string `envconfig:"WORLDLEADER_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WORLDLEADER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WORLDLEADER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WORLDLEADER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MailConfig struct {
	FromAddress string `envconfig:"WORLDLEADER_MAIL_FROM" default:"noreply@worldleader.io"`
	AppURL      string `envconfig:"WORLDLEADER_APP_URL" default:"https://worldleader.io"`
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
