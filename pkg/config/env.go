package config

const EnvPrefix = "DOUMAI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "DOUMAI_APP_ENV"
	EnvPort      = "DOUMAI_APP_PORT"
	EnvLogLevel  = "DOUMAI_LOG_LEVEL"
	EnvDBDSN     = "DOUMAI_DB_DSN"
	EnvDBHost    = "DOUMAI_DB_HOST"
	EnvDBUser    = "DOUMAI_DB_USER"
	EnvDBName    = "DOUMAI_DB_NAME"
	EnvRedisURL  = "DOUMAI_REDIS_URL"
	EnvJWTSecret = "DOUMAI_AUTH_JWT_SECRET"
	EnvJWTIssuer = "DOUMAI_AUTH_ISSUER"

	EnvSyncCompletionDelay = "DOUMAI_SYNC_COMPLETION_DELAY"
	EnvLedgerBatchMaxSKUs  = "DOUMAI_LEDGER_BATCH_MAX_SKUS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
