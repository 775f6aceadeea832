package repositories

import (
	"context"

	"github.com/clipfeed/backend/internal/models"
)

// StatsRepository collects aggregate counts for the admin console.
type StatsRepository interface {
	// Collect runs the six counts as independent queries; the snapshot is
	// eventually consistent, not transactional.
	Collect(ctx context.Context) (models.AdminStats, error)
}
