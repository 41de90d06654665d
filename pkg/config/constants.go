package config

// EnvPrefix namespaces every environment variable the app reads.
const EnvPrefix = "AGRIMANDI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AGRIMANDI_DB_DSN"
	EnvDBHost = "AGRIMANDI_DB_HOST"
	EnvDBUser = "AGRIMANDI_DB_USER"
	EnvDBName = "AGRIMANDI_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
