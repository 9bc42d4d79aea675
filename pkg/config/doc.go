// Package config provides configuration management for the ListingForge
// gateway.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LISTINGFORGE_SECTION_FIELD:
//
//   - LISTINGFORGE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LISTINGFORGE_GROQ_API_KEY overrides generation.api_key
//   - LISTINGFORGE_AUTH_JWT_SECRET overrides auth.jwt_secret
//   - LISTINGFORGE_QUOTA_POSTGRES_DSN overrides quota.postgres.dsn
//   - LISTINGFORGE_QUOTA_REDIS_ADDR overrides quota.redis.addr
//
// GROQ_API_KEY is honored when LISTINGFORGE_GROQ_API_KEY is unset, so
// existing deployments keep working.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Because defaults are laid down before the file is decoded, a boolean set
// to false in YAML stays false.
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// # Hot Reload
//
// Watcher reloads the file on change and hands the new configuration to a
// callback. Only settings that are safe to change live are applied by the
// server: the log level and the pacing rate.
package config
