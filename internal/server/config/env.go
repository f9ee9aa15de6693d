package config

// Environment variables read by parseEnv. DATABASE_URI keeps the name used by
// existing deployments.
const (
	envDatabaseDSN = "DATABASE_URI"
	envSecretKey   = "SECRET_KEY"
)

// parseEnv overlays settings that are usually injected by the environment
// rather than written to config files. Unset or empty variables are ignored.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(envDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookup(envSecretKey); ok && v != "" {
		config.SecretKey = v
	}
}
