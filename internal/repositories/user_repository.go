package repositories

import (
	"context"

	"github.com/clipfeed/backend/internal/models"
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context, limit int) ([]models.User, error)
	SetBanStatus(ctx context.Context, id string, banned bool, reason string) error
}
