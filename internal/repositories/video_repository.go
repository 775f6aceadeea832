package repositories

import (
	"context"

	"github.com/clipfeed/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	// ListApproved returns publicly visible videos in reverse chronological
	// order, honouring the skip/limit window.
	ListApproved(ctx context.Context, skip, limit int) ([]models.Video, error)
	// ListAll is unfiltered by moderation status; admin console only.
	ListAll(ctx context.Context, limit int) ([]models.Video, error)
	// GetApprovedAndCountView returns an approved video and atomically bumps
	// its view counter in the same statement. Absent or non-approved videos
	// yield ErrNotFound; repeat reads by the same caller each count.
	GetApprovedAndCountView(ctx context.Context, id string) (models.Video, error)
	Exists(ctx context.Context, id string) (bool, error)
	// SetModeration applies an admin moderation decision. Last write wins;
	// there is no transition history. Rejecting marks the video flagged and
	// records the reason; approving changes only the status.
	SetModeration(ctx context.Context, id, status, reason string) error
	// RejectPendingByOwner flips every still-pending video owned by the user
	// to rejected+flagged. Safe to re-run: it only touches pending rows.
	RejectPendingByOwner(ctx context.Context, userID string) error
	// Delete removes the video together with its comments and likes.
	Delete(ctx context.Context, id string) error
}
