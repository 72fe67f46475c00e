package config

// EnvPrefix is empty because every field carries its full ORCHID_* name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv        = "ORCHID_APP_ENV"
	EnvPort          = "ORCHID_APP_PORT"
	EnvDBDSN         = "ORCHID_DB_DSN"
	EnvDBHost        = "ORCHID_DB_HOST"
	EnvDBUser        = "ORCHID_DB_USER"
	EnvDBName        = "ORCHID_DB_NAME"
	EnvDBPassword    = "ORCHID_DB_PASSWORD"
	EnvUseSQLite     = "ORCHID_USE_SQLITE"
	EnvRedisURL      = "ORCHID_REDIS_URL"
	EnvJWTSecret     = "ORCHID_JWT_SECRET"
	EnvJWTIssuer     = "ORCHID_JWT_ISSUER"
	EnvJWTExpMins    = "ORCHID_JWT_EXPIRATION_MINUTES"
	EnvRazorpayKey   = "ORCHID_RAZORPAY_KEY_ID"
	EnvRazorpaySec   = "ORCHID_RAZORPAY_KEY_SECRET"
	EnvAITimeout     = "ORCHID_AI_TIMEOUT"
	EnvOTPTTL        = "ORCHID_OTP_TTL"
	EnvOrdersStale   = "ORCHID_ORDERS_STALE_AFTER"
	EnvAllowedOrigin = "ORCHID_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
