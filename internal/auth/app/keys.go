package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// InitSigningKey derives the HMAC key material from the configured secret.
// The placeholder secret is allowed outside prod but logged loudly, since
// anyone who knows it can mint tokens.
func InitSigningKey(cfg Config, logger *slog.Logger) (jwtx.KeyMaterial, error) {
	keys, err := jwtx.NewKeyMaterial(cfg.SecretKey)
	if err != nil {
		return jwtx.KeyMaterial{}, fmt.Errorf("failed to derive signing key: %w", err)
	}

	if keys.IsDefault() {
		logger.Warn("using the default signing secret, set AUTH_SECRET_KEY",
			"env", cfg.Env,
		)
	}

	logger.Info("signing key loaded",
		"algorithm", keys.Algorithm(),
		"access_ttl", cfg.AccessTokenTTL,
		"refresh_ttl", jwtx.RefreshTTLMultiplier*cfg.AccessTokenTTL,
	)
	return keys, nil
}
