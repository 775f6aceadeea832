package repositories

import (
	"context"
	"time"
)

// LikeRepository defines data access for the like toggle.
type LikeRepository interface {
	// Toggle flips the like state for the (user, video) pair and applies the
	// matching counter delta atomically. It reports the resulting state:
	// true when the call created the like, false when it removed one.
	// A missing video yields ErrNotFound.
	Toggle(ctx context.Context, videoID, userID, likeID string, now time.Time) (bool, error)
	Exists(ctx context.Context, videoID, userID string) (bool, error)
}
