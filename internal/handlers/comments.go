package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipfeed/backend/internal/logging"
	"github.com/clipfeed/backend/internal/models"
)

const defaultCommentPageSize = 50

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Filter   ContentFilter
	Access   AccessController
	NowFunc  func() time.Time
}

// Add handles POST /api/videos/{id}/comments. A flagged comment is rejected
// and nothing is persisted. Unlike flagged uploads, the author is NOT
// banned; comment and upload moderation deliberately carry different
// consequences.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Access)
	if !ok {
		return
	}

	videoID := r.PathValue("id")
	exists, err := h.Videos.Exists(ctx, videoID)
	if err != nil {
		logger.Error("failed to check video", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add comment"})
		return
	}
	if !exists {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	if h.Filter.Flagged(req.Content) {
		logger.Warn("comment rejected by moderation", "userId", user.ID, "videoId", videoID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment contains inappropriate content"})
		return
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		Content:   req.Content,
		VideoID:   videoID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: h.now(),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		logger.Error("failed to create comment", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add comment"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, addCommentResponse{
		Message: "comment added",
		Comment: newCommentResponse(comment),
	})
}

// List handles GET /api/videos/{id}/comments requests.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	skip, limit := pageWindow(r, defaultCommentPageSize, maxPublicListCap)

	comments, err := h.Comments.ListForVideo(ctx, r.PathValue("id"), skip, limit)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list comments", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list comments"})
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, newCommentResponse(comment))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

type commentRequest struct {
	Content string `json:"content"`
}

type addCommentResponse struct {
	Message string          `json:"message"`
	Comment commentResponse `json:"comment"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
