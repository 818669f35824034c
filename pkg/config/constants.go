package config

const (
	EnvPrefix = "FURNISTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FURNISTORE_DB_DSN"
	EnvDBHost = "FURNISTORE_DB_HOST"
	EnvDBUser = "FURNISTORE_DB_USER"
	EnvDBName = "FURNISTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
