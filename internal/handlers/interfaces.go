package handlers

import (
	"context"
	"io"
	"time"

	"github.com/clipfeed/backend/internal/models"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context, limit int) ([]models.User, error)
	SetBanStatus(ctx context.Context, id string, banned bool, reason string) error
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	ListApproved(ctx context.Context, skip, limit int) ([]models.Video, error)
	ListAll(ctx context.Context, limit int) ([]models.Video, error)
	GetApprovedAndCountView(ctx context.Context, id string) (models.Video, error)
	Exists(ctx context.Context, id string) (bool, error)
	SetModeration(ctx context.Context, id, status, reason string) error
	RejectPendingByOwner(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string, skip, limit int) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore captures the like toggle and lookup operations.
type LikeStore interface {
	Toggle(ctx context.Context, videoID, userID, likeID string, now time.Time) (bool, error)
	Exists(ctx context.Context, videoID, userID string) (bool, error)
}

// StatsProvider aggregates the admin console counters.
type StatsProvider interface {
	Collect(ctx context.Context) (models.AdminStats, error)
}

// PayloadStore persists uploaded video payloads and returns their public
// location.
type PayloadStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// ContentFilter renders moderation verdicts over free text. The filter only
// decides; handlers apply the consequences.
type ContentFilter interface {
	Flagged(text string) bool
}

// TokenIssuer mints signed bearer tokens for authenticated principals.
type TokenIssuer interface {
	Issue(subject, role string) (string, error)
}

// AccessController resolves bearer tokens to identities and validates the
// static admin credential pair.
type AccessController interface {
	AuthenticateUser(ctx context.Context, token string) (models.User, error)
	AuthenticateAdmin(token string) error
	CheckAdminCredentials(username, password string) bool
}
