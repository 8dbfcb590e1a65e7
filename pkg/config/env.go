package config

const (
	EnvPrefix = "CRONOGRAMA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "CRONOGRAMA_APP_ENV"
	EnvPort                   = "CRONOGRAMA_APP_PORT"
	EnvRedisURL               = "CRONOGRAMA_REDIS_URL"
	EnvJWTSecret              = "CRONOGRAMA_JWT_SECRET"
	EnvJWTIssuer              = "CRONOGRAMA_JWT_ISSUER"
	EnvJWTExpMins             = "CRONOGRAMA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CRONOGRAMA_REFRESH_TOKEN_TTL_MINUTES"
	EnvSheetsURL              = "CRONOGRAMA_SHEETS_URL"
	EnvSheetsDataTab          = "CRONOGRAMA_SHEETS_DATA_TAB"
	EnvSheetsUsersTab         = "CRONOGRAMA_SHEETS_USERS_TAB"
	EnvSheetsCredentialsJSON  = "CRONOGRAMA_GOOGLE_CREDENTIALS_JSON"
	EnvSheetsCredentialsFile  = "CRONOGRAMA_GOOGLE_APPLICATION_CREDENTIALS"
	EnvScheduleCacheTTL       = "CRONOGRAMA_SCHEDULE_CACHE_TTL"
	EnvScheduleFilterColumns  = "CRONOGRAMA_SCHEDULE_FILTER_COLUMNS"
	EnvPubSubAuditTopic       = "CRONOGRAMA_PUBSUB_AUDIT_TOPIC"
	EnvGCPProjectID           = "CRONOGRAMA_GCP_PROJECT_ID"
)
