package config

const (
	EnvPrefix = "MESA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "MESA_APP_ENV"
	EnvPort   = "MESA_APP_PORT"

	EnvDBDSN  = "MESA_DB_DSN"
	EnvDBHost = "MESA_DB_HOST"
	EnvDBUser = "MESA_DB_USER"
	EnvDBName = "MESA_DB_NAME"

	EnvMatchSearchThreshold      = "MESA_MATCH_SEARCH_THRESHOLD"
	EnvMatchSearchLimit          = "MESA_MATCH_SEARCH_LIMIT"
	EnvMatchAcceptScore          = "MESA_MATCH_ACCEPT_SCORE"
	EnvMatchVerySimilarThreshold = "MESA_MATCH_VERY_SIMILAR_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
