package models

import "time"

// User represents an account within the clipfeed platform.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	IsBanned  bool
	BanReason string
	BannedAt  *time.Time
}

// Moderation lifecycle states for uploaded videos.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// Video stores an uploaded clip together with its moderation state and a
// denormalized owner username. PayloadKey/PayloadURL reference the binary
// payload in object storage; the row itself never carries the bytes.
type Video struct {
	ID               string
	Title            string
	Description      string
	PayloadKey       string
	PayloadURL       string
	UserID           string
	Username         string
	Likes            int64
	Views            int64
	CreatedAt        time.Time
	IsFlagged        bool
	ModerationStatus string
	RejectionReason  string
}

// Comment is attached to a video. Username is copied from the author at
// write time and is not refreshed if the account later renames.
type Comment struct {
	ID        string
	Content   string
	VideoID   string
	UserID    string
	Username  string
	CreatedAt time.Time
}

// Like records that a user liked a video. Presence of the row is the like
// state; the counter on Video is derived from it.
type Like struct {
	ID        string
	VideoID   string
	UserID    string
	CreatedAt time.Time
}

// AdminStats is a point-in-time aggregate snapshot for the admin console.
// The six counts come from independent queries and are not transactionally
// consistent with each other.
type AdminStats struct {
	TotalUsers    int64
	BannedUsers   int64
	TotalVideos   int64
	FlaggedVideos int64
	PendingVideos int64
	TotalComments int64
}
