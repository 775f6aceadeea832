package app

import (
	"time"

	"github.com/clipfeed/backend/internal/auth"
	"github.com/clipfeed/backend/internal/config"
	"github.com/clipfeed/backend/internal/db"
	"github.com/clipfeed/backend/internal/handlers"
	"github.com/clipfeed/backend/internal/middleware"
	"github.com/clipfeed/backend/internal/moderation"
	"github.com/clipfeed/backend/internal/repositories"
)

// Login attempts per IP across the auth endpoints.
const (
	loginRateRequests = 10
	loginRateWindow   = time.Minute
	loginRateBurst    = 5
	loginRateTTL      = 10 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, payloads handlers.PayloadStore, cfg config.Config) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)

	denylist := cfg.Denylist
	if len(denylist) == 0 {
		denylist = moderation.DefaultDenylist
	}

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.UserTokenTTL)
	guard := auth.Guard{
		Tokens: tokens,
		Users:  users,
		Admin: auth.AdminCredentials{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		},
	}

	return handlers.Dependencies{
		Users:        users,
		Videos:       repositories.NewPostgresVideoRepository(pool),
		Comments:     repositories.NewPostgresCommentRepository(pool),
		Likes:        repositories.NewPostgresLikeRepository(pool),
		Stats:        repositories.NewPostgresStatsRepository(pool),
		Payloads:     payloads,
		Filter:       moderation.NewFilter(denylist),
		Tokens:       tokens,
		Access:       guard,
		LoginLimiter: middleware.NewIPRateLimiter(loginRateRequests, loginRateWindow, loginRateBurst, loginRateTTL),
	}
}
