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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	FeatureFlags  FeatureFlagsConfig
	Gateway       GatewayConfig
	Cloudinary    CloudinaryConfig
	Sendgrid      SendgridConfig
	AI            AIConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Orders        OrdersConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"ORCHID_APP_ENV" required:"true"`
	Port           string   `envconfig:"ORCHID_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"ORCHID_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"ORCHID_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"ORCHID_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ORCHID_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORCHID_DB_DSN"`
	Driver string `envconfig:"ORCHID_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORCHID_DB_HOST"`
	LegacyPort     int    `envconfig:"ORCHID_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORCHID_DB_USER"`
	LegacyPassword string `envconfig:"ORCHID_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORCHID_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORCHID_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORCHID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORCHID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORCHID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORCHID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORCHID_REDIS_URL"`
	Address      string        `envconfig:"ORCHID_REDIS_ADDR"`
	Password     string        `envconfig:"ORCHID_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORCHID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORCHID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORCHID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORCHID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORCHID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORCHID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ORCHID_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ORCHID_JWT_ISSUER" default:"orchid"`
	ExpirationMinutes      int    `envconfig:"ORCHID_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ORCHID_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	CookieName             string `envconfig:"ORCHID_JWT_COOKIE_NAME" default:"orchid_token"`
	CookieSecure           bool   `envconfig:"ORCHID_JWT_COOKIE_SECURE" default:"true"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ORCHID_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ORCHID_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ORCHID_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ORCHID_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ORCHID_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"ORCHID_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"ORCHID_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	OTPWindow        time.Duration `envconfig:"ORCHID_AUTH_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPEmailLimit    int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"5"`
	OTPIPLimit       int           `envconfig:"ORCHID_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"30"`
}

type OTPConfig struct {
	Length         int           `envconfig:"ORCHID_OTP_LENGTH" default:"6"`
	TTL            time.Duration `envconfig:"ORCHID_OTP_TTL" default:"10m"`
	MaxAttempts    int           `envconfig:"ORCHID_OTP_MAX_ATTEMPTS" default:"5"`
	ResendCooldown time.Duration `envconfig:"ORCHID_OTP_RESEND_COOLDOWN" default:"60s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORCHID_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORCHID_AUTO_MIGRATE" default:"false"`
}

type GatewayConfig struct {
	KeyID           string        `envconfig:"ORCHID_RAZORPAY_KEY_ID"`
	KeySecret       string        `envconfig:"ORCHID_RAZORPAY_KEY_SECRET"`
	DefaultCurrency string        `envconfig:"ORCHID_DEFAULT_CURRENCY" default:"INR"`
	ReceiptPrefix   string        `envconfig:"ORCHID_RAZORPAY_RECEIPT_PREFIX" default:"orchid"`
	Timeout         time.Duration `envconfig:"ORCHID_RAZORPAY_TIMEOUT" default:"20s"`
}

type CloudinaryConfig struct {
	URL         string `envconfig:"ORCHID_CLOUDINARY_URL"`
	Folder      string `envconfig:"ORCHID_CLOUDINARY_FOLDER" default:"orchid/artworks"`
	MaxUploadMB int    `envconfig:"ORCHID_MAX_UPLOAD_MB" default:"25"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"ORCHID_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"ORCHID_SENDGRID_FROM_EMAIL" default:"no-reply@orchid.local"`
	FromName    string `envconfig:"ORCHID_SENDGRID_FROM_NAME" default:"Orchid"`
}

type AIConfig struct {
	VisionBaseURL string        `envconfig:"ORCHID_AI_VISION_URL"`
	GiftBaseURL   string        `envconfig:"ORCHID_AI_GIFT_URL"`
	Token         string        `envconfig:"ORCHID_AI_TOKEN"`
	Timeout       time.Duration `envconfig:"ORCHID_AI_TIMEOUT" default:"150s"`
	MaxPayloadMB  int           `envconfig:"ORCHID_AI_MAX_PAYLOAD_MB" default:"15"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ORCHID_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ORCHID_PUBSUB_ORDERS_TOPIC" default:"orchid-order-events"`
	OrdersSubscription string `envconfig:"ORCHID_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"ORCHID_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"ORCHID_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"ORCHID_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"ORCHID_OUTBOX_RETENTION" default:"720h"`
}

type OrdersConfig struct {
	StaleAfter  time.Duration `envconfig:"ORCHID_ORDERS_STALE_AFTER" default:"24h"`
	VerifyLock  time.Duration `envconfig:"ORCHID_ORDERS_VERIFY_LOCK" default:"30s"`
	MaxLineQty  int           `envconfig:"ORCHID_ORDERS_MAX_LINE_QTY" default:"100"`
	MaxLineItem int           `envconfig:"ORCHID_ORDERS_MAX_LINE_ITEMS" default:"50"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ORCHID_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if db.DSN != "" {
		return nil
	}
	if sqlite {
		db.DSN = "file:orchid.db?cache=shared"
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
