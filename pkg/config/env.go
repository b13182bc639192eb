package config

// Environment names recognized by the service
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether an environment must meet production
// configuration requirements (no localhost backends, explicit hosts).
func IsProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
