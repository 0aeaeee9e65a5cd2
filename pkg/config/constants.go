package config

// EnvPrefix is passed to envconfig; individual fields pin their full names so
// the prefix only matters for tooling.
const EnvPrefix = "MERCADO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "MERCADO_APP_ENV"
	EnvPort       = "MERCADO_APP_PORT"
	EnvDBDSN      = "MERCADO_DB_DSN"
	EnvDBHost     = "MERCADO_DB_HOST"
	EnvDBUser     = "MERCADO_DB_USER"
	EnvDBName     = "MERCADO_DB_NAME"
	EnvRedisURL   = "MERCADO_REDIS_URL"
	EnvJWTSecret  = "MERCADO_JWT_SECRET"
	EnvJWTIssuer  = "MERCADO_JWT_ISSUER"
	EnvJWTExpMins = "MERCADO_JWT_EXPIRATION_MINUTES"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
