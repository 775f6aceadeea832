package repositories

import (
	"context"

	"github.com/clipfeed/backend/internal/models"
)

// CommentRepository defines data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string, skip, limit int) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}
