package config

type Config interface {
	EnvConfig
	CorsConfig
	SalesforceConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetFrontendURL() string
	GetEnv() string
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Salesforce
}

func New() Config {
	return mainConfig{}
}
