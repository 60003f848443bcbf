package config

const EnvPrefix = "AUTOSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:autostore.db?cache=shared"
)

const (
	EnvAppEnv         = "AUTOSTORE_APP_ENV"
	EnvPort           = "AUTOSTORE_APP_PORT"
	EnvStorageDriver  = "AUTOSTORE_STORAGE_DRIVER"
	EnvDBDSN          = "AUTOSTORE_DB_DSN"
	EnvDBHost         = "AUTOSTORE_DB_HOST"
	EnvDBUser         = "AUTOSTORE_DB_USER"
	EnvDBName         = "AUTOSTORE_DB_NAME"
	EnvRedisURL       = "AUTOSTORE_REDIS_URL"
	EnvCatalogBaseURL = "AUTOSTORE_CATALOG_BASE_URL"
	EnvGuestUserID    = "AUTOSTORE_GUEST_USER_ID"
	EnvUseSQLite      = "AUTOSTORE_USE_SQLITE"
	EnvLeadsEnabled   = "AUTOSTORE_FEATURE_LEADS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
