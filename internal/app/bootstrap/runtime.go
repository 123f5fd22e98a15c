// Package bootstrap wires shared runtime dependencies for the portal
// binaries.
package bootstrap

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/vitalcare/clinic-portal/internal/config"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil, leaving the
// portal to run without persisted sessions.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, sessions will not survive restarts", "error", err)
		return nil
	}
	return client
}

// SessionSecret returns the configured session signing secret, or a random
// per-process secret when none is set. A random secret still signs sessions
// correctly; it just invalidates persisted ones on restart.
func SessionSecret(cfg *appconfig.Config, logger *logging.Logger) []byte {
	if cfg != nil && strings.TrimSpace(cfg.SessionSigningSecret) != "" {
		return []byte(cfg.SessionSigningSecret)
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Warn("SESSION_SIGNING_SECRET not set, using a random per-process secret")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		// crypto/rand failing is unrecoverable anyway; fall back to a
		// fixed marker so the error surfaces in session handling.
		return []byte("insecure-bootstrap-secret")
	}
	return secret
}
