package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// OPSDESK_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "OPSDESK_APP_ENV"
	EnvPort   = "OPSDESK_APP_PORT"

	EnvDBDSN  = "OPSDESK_DB_DSN"
	EnvDBHost = "OPSDESK_DB_HOST"
	EnvDBUser = "OPSDESK_DB_USER"
	EnvDBName = "OPSDESK_DB_NAME"

	EnvRedisURL = "OPSDESK_REDIS_URL"

	EnvJWTSecret = "OPSDESK_JWT_SECRET"
	EnvJWTIssuer = "OPSDESK_JWT_ISSUER"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
