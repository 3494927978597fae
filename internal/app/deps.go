package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// cleanupFunc releases background resources created by buildDependencies.
type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	revoker, closeRedis, err := buildRevoker(cfg.RedisURL)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		_ = closeRedis()
		return handlers.Dependencies{}, nil, err
	}

	janitor := media.NewJanitor(store, media.JanitorConfig{
		QueueSize: cfg.Media.JanitorQueue,
		Workers:   cfg.Media.JanitorWorkers,
	}, logger)
	prober := media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout)
	host := media.NewHost(store, janitor, prober, logger)

	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewTokenIssuer(cfg.Tokens.Issuer, cfg.Tokens.AccessSecret, cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshTTL)

	deps := handlers.Dependencies{
		Users:          users,
		Sessions:       auth.NewManager(tokens, users, auth.BcryptHasher{}, revoker),
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Tweets:         repositories.NewPostgresTweetRepository(pool),
		Likes:          repositories.NewPostgresLikeRepository(pool),
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		Media:          host,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, 0),
		Gatherer:       prometheus.DefaultGatherer,
		Cookies:        handlers.CookieConfig{Secure: cfg.Cookies.Secure, Domain: cfg.Cookies.Domain},
		MaxUploadBytes: cfg.Media.MaxUploadBytes,

		TrustForwardedFor: cfg.TrustForwardedFor,
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}

	cleanup := func(ctx context.Context) error {
		return errors.Join(janitor.Shutdown(ctx), closeRedis())
	}
	return deps, cleanup, nil
}

// buildRevoker connects the access-token denylist. Without a Redis URL logout only
// ends the refresh session.
func buildRevoker(redisURL string) (auth.Revoker, func() error, error) {
	if redisURL == "" {
		return auth.NoopRevoker{}, func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return auth.NewRedisRevoker(client), client.Close, nil
}
