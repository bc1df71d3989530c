package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// ErrDefaultSecretInProd is returned by Validate when production would run
// with the placeholder signing secret.
var ErrDefaultSecretInProd = errors.New("app: AUTH_SECRET_KEY must be set in prod")

type Config struct {
	SecretKey      string        // Signing secret (default: "secret", rejected in prod)
	AccessTokenTTL time.Duration // Access token lifetime; refresh tokens live 3x longer (default: 1h)
	Issuer         string        // Optional: fixed "iss" claim; empty uses the request origin
	TokenRoles     bool          // Trust roles in the token instead of the directory (default: false)

	PolicyFile   string // Optional: YAML route policy; empty uses the built-in table
	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	PepperFile   string // Path to the password pepper file (default: ./pepper)

	AdminUsername string   // Optional: seed this admin when the directory is empty
	AdminPassword string   // Optional: generated and logged once when empty
	AdminRoles    []string // Roles for the seeded admin (default: ADMIN)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		SecretKey: getEnvOrDefault("AUTH_SECRET_KEY", jwtx.DefaultSecret),
		AccessTokenTTL: time.Duration(
			getEnvIntOrDefault("AUTH_ACCESS_TOKEN_TTL_MS", int(jwtx.DefaultAccessTokenTTL/time.Millisecond)),
		) * time.Millisecond,
		Issuer:              os.Getenv("AUTH_ISSUER"),
		TokenRoles:          getEnvBoolOrDefault("AUTH_TOKEN_ROLES", false),
		PolicyFile:          os.Getenv("AUTH_POLICY_FILE"),
		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		AdminUsername:       os.Getenv("AUTH_ADMIN_USERNAME"),
		AdminPassword:       os.Getenv("AUTH_ADMIN_PASSWORD"),
		AdminRoles:          httpx.ParseSpaceDelimitedFields(strings.ReplaceAll(os.Getenv("AUTH_ADMIN_ROLES"), ",", " ")),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return jwtx.ErrEmptySecret
	}
	if c.SecretKey == jwtx.DefaultSecret && c.Env == "prod" {
		return ErrDefaultSecretInProd
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("app: access token TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("app: invalid port %d", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
