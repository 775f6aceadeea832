package handlers

import (
	"time"

	"github.com/clipfeed/backend/internal/models"
)

// Response shapes returned to API clients. The password hash is never
// serialized; payload bytes are referenced by URL only.

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsBanned  bool      `json:"is_banned"`
	BanReason string    `json:"ban_reason,omitempty"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		IsBanned:  user.IsBanned,
		BanReason: user.BanReason,
	}
}

type videoResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	PayloadURL       string    `json:"payload_url"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Likes            int64     `json:"likes"`
	Views            int64     `json:"views"`
	CreatedAt        time.Time `json:"created_at"`
	IsFlagged        bool      `json:"is_flagged"`
	ModerationStatus string    `json:"moderation_status"`
	RejectionReason  string    `json:"rejection_reason,omitempty"`
}

func newVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:               video.ID,
		Title:            video.Title,
		Description:      video.Description,
		PayloadURL:       video.PayloadURL,
		UserID:           video.UserID,
		Username:         video.Username,
		Likes:            video.Likes,
		Views:            video.Views,
		CreatedAt:        video.CreatedAt,
		IsFlagged:        video.IsFlagged,
		ModerationStatus: video.ModerationStatus,
		RejectionReason:  video.RejectionReason,
	}
}

func newVideoResponses(videos []models.Video) []videoResponse {
	out := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		out = append(out, newVideoResponse(video))
	}
	return out
}

type commentResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"video_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func newCommentResponse(comment models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		VideoID:   comment.VideoID,
		UserID:    comment.UserID,
		Username:  comment.Username,
		CreatedAt: comment.CreatedAt,
	}
}

type statsResponse struct {
	TotalUsers    int64 `json:"total_users"`
	BannedUsers   int64 `json:"banned_users"`
	TotalVideos   int64 `json:"total_videos"`
	FlaggedVideos int64 `json:"flagged_videos"`
	PendingVideos int64 `json:"pending_videos"`
	TotalComments int64 `json:"total_comments"`
}
