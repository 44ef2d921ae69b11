// Package bootstrap wires configuration into the concrete clients used by
// the CLI.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/wolfman30/agenda/internal/bookingapi"
	appconfig "github.com/wolfman30/agenda/internal/config"
	"github.com/wolfman30/agenda/internal/observability/metrics"
	"github.com/wolfman30/agenda/internal/realtime"
	"github.com/wolfman30/agenda/internal/session"
	"github.com/wolfman30/agenda/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
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
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore picks the session persistence backend.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client) (session.Store, error) {
	switch cfg.SessionStore {
	case "", "file":
		return session.NewFileStore(cfg.SessionFile), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: SESSION_STORE=redis needs a reachable REDIS_ADDR")
		}
		return session.NewRedisStore(redisClient, cfg.Env), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown SESSION_STORE %q", cfg.SessionStore)
}

// BuildAuthenticator returns the Supabase authenticator, or nil when Supabase
// is not configured. Without it only an OAuth redirect can sign in.
func BuildAuthenticator(cfg *appconfig.Config, logger *logging.Logger) session.Authenticator {
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		return nil
	}
	auth, err := session.NewSupabaseAuthenticator(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		if logger != nil {
			logger.Warn("supabase auth unavailable", "error", err)
		}
		return nil
	}
	return auth
}

// BuildAPIClient returns the booking API client authenticated by tokens.
func BuildAPIClient(cfg *appconfig.Config, tokens oauth2.TokenSource, m *metrics.ClientMetrics, logger *logging.Logger) *bookingapi.Client {
	return bookingapi.NewClient(cfg.APIBaseURL, logger,
		bookingapi.WithTimeout(cfg.HTTPTimeout),
		bookingapi.WithTokenSource(tokens),
		bookingapi.WithMetrics(m),
	)
}

// BuildSubscriber picks the realtime transport.
func BuildSubscriber(cfg *appconfig.Config, tokens oauth2.TokenSource, redisClient *redis.Client, logger *logging.Logger) (realtime.Subscriber, error) {
	switch cfg.RealtimeTransport {
	case "", "supabase":
		endpoint := cfg.RealtimeURL()
		if endpoint == "" {
			return nil, fmt.Errorf("bootstrap: SUPABASE_URL is required for supabase realtime")
		}
		return realtime.NewPhoenixSubscriber(endpoint, cfg.SupabaseAnonKey, logger, realtime.WithAccessToken(tokens)), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: REALTIME_TRANSPORT=redis needs a reachable REDIS_ADDR")
		}
		return realtime.NewRedisSubscriber(redisClient, cfg.RealtimeRedisChannel, logger), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown REALTIME_TRANSPORT %q", cfg.RealtimeTransport)
}
