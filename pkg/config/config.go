package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMTP          SMTPConfig
	Gateway       GatewayConfig
	Orders        OrdersConfig
	OTP           OTPConfig
	BulkReview    BulkReviewConfig
	Cron          CronConfig
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
	Env          string `envconfig:"AGRIMANDI_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRIMANDI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRIMANDI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRIMANDI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGRIMANDI_DB_DSN"`
	Driver string `envconfig:"AGRIMANDI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRIMANDI_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRIMANDI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRIMANDI_DB_USER"`
	LegacyPassword string `envconfig:"AGRIMANDI_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRIMANDI_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRIMANDI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRIMANDI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRIMANDI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRIMANDI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRIMANDI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRIMANDI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRIMANDI_REDIS_ADDR"`
	Password     string        `envconfig:"AGRIMANDI_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRIMANDI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRIMANDI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRIMANDI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRIMANDI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRIMANDI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRIMANDI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGRIMANDI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGRIMANDI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGRIMANDI_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGRIMANDI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGRIMANDI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGRIMANDI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGRIMANDI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGRIMANDI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGRIMANDI_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGRIMANDI_AUTO_MIGRATE" default:"false"`
}

type SMTPConfig struct {
	Host     string `envconfig:"AGRIMANDI_SMTP_HOST" required:"true"`
	Port     int    `envconfig:"AGRIMANDI_SMTP_PORT" default:"587"`
	Username string `envconfig:"AGRIMANDI_SMTP_USERNAME"`
	Password string `envconfig:"AGRIMANDI_SMTP_PASSWORD"`
	From     string `envconfig:"AGRIMANDI_SMTP_FROM" required:"true"`
}

// Addr returns the host:port dial target for the SMTP server.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GatewayConfig struct {
	BaseURL   string        `envconfig:"AGRIMANDI_GATEWAY_BASE_URL" default:"https://api.razorpay.com"`
	KeyID     string        `envconfig:"AGRIMANDI_GATEWAY_KEY_ID"`
	KeySecret string        `envconfig:"AGRIMANDI_GATEWAY_KEY_SECRET"`
	Timeout   time.Duration `envconfig:"AGRIMANDI_GATEWAY_TIMEOUT" default:"10s"`
}

type OrdersConfig struct {
	LowStockFloor   int `envconfig:"AGRIMANDI_ORDERS_LOW_STOCK_FLOOR" default:"1"`
	LowStockCeiling int `envconfig:"AGRIMANDI_ORDERS_LOW_STOCK_CEILING" default:"10"`
}

type OTPConfig struct {
	HubArrivalTTL    time.Duration `envconfig:"AGRIMANDI_OTP_HUB_ARRIVAL_TTL" default:"10m"`
	EmailTTL         time.Duration `envconfig:"AGRIMANDI_OTP_EMAIL_TTL" default:"5m"`
	EmailMaxAttempts int           `envconfig:"AGRIMANDI_OTP_EMAIL_MAX_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"AGRIMANDI_CRON_INTERVAL" default:"1h"`
	OrderTTLDays              int           `envconfig:"AGRIMANDI_CRON_ORDER_TTL_DAYS" default:"7"`
	NotificationRetentionDays int           `envconfig:"AGRIMANDI_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

type BulkReviewConfig struct {
	AdvanceThresholdPaise int64 `envconfig:"AGRIMANDI_BULK_ADVANCE_THRESHOLD_PAISE" default:"5000000"`
	AdvancePercent        int   `envconfig:"AGRIMANDI_BULK_ADVANCE_PERCENT" default:"10"`
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
