package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "FOODRUNS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "FOODRUNS_APP_ENV"
	EnvPort       = "FOODRUNS_APP_PORT"
	EnvDBDSN      = "FOODRUNS_DB_DSN"
	EnvDBHost     = "FOODRUNS_DB_HOST"
	EnvDBUser     = "FOODRUNS_DB_USER"
	EnvDBName     = "FOODRUNS_DB_NAME"
	EnvRedisURL   = "FOODRUNS_REDIS_URL"
	EnvJWTSecret  = "FOODRUNS_JWT_SECRET"
	EnvJWTIssuer  = "FOODRUNS_JWT_ISSUER"
	EnvJWTExpMins = "FOODRUNS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
