package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipfeed/backend/internal/logging"
	"github.com/clipfeed/backend/internal/models"
	"github.com/clipfeed/backend/internal/repositories"
)

const (
	maxUploadMemory  = 32 << 20
	uploadBanReason  = "Uploaded inappropriate content"
	defaultPageSize  = 20
	maxPublicListCap = 100
)

// VideoHandler implements upload, listing, playback, and like endpoints.
type VideoHandler struct {
	Videos   VideoStore
	Likes    LikeStore
	Users    UserStore
	Payloads PayloadStore
	Filter   ContentFilter
	Access   AccessController
	NowFunc  func() time.Time
}

// Upload handles POST /api/videos multipart requests. The moderation verdict
// is computed first; only a clean upload touches object storage or the
// videos table. A flagged upload persists exactly two things: the owner's
// ban and the rejection of their still-pending videos.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Access)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid upload form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer file.Close()

	if h.Filter.Flagged(title) || h.Filter.Flagged(description) {
		// Verdict first, consequences second: ban the uploader and reject
		// their pending videos. The cascade only moves pending to rejected,
		// so re-running it after a partial failure is safe.
		if err := h.Users.SetBanStatus(ctx, user.ID, true, uploadBanReason); err != nil {
			logger.Error("failed to ban uploader", "error", err, "userId", user.ID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to apply moderation decision"})
			return
		}
		if err := h.Videos.RejectPendingByOwner(ctx, user.ID); err != nil {
			logger.Error("failed to reject pending videos", "error", err, "userId", user.ID)
		}
		logger.Warn("upload rejected by moderation", "userId", user.ID)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{
			"error": "content violates community guidelines; account has been banned",
		})
		return
	}

	id := uuid.NewString()
	key := fmt.Sprintf("videos/%s/%s%s", user.ID, id, filepath.Ext(header.Filename))

	location, err := h.Payloads.Save(ctx, key, file)
	if err != nil {
		logger.Error("failed to store payload", "error", err, "key", key)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store video"})
		return
	}

	video := models.Video{
		ID:               id,
		Title:            title,
		Description:      description,
		PayloadKey:       key,
		PayloadURL:       location,
		UserID:           user.ID,
		Username:         user.Username,
		CreatedAt:        h.now(),
		ModerationStatus: models.ModerationApproved,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to create video", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, uploadResponse{
		Message: "video uploaded successfully",
		Video:   newVideoResponse(video),
	})
}

// List handles GET /api/videos requests: approved videos only.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	skip, limit := pageWindow(r, defaultPageSize, maxPublicListCap)

	videos, err := h.Videos.ListApproved(ctx, skip, limit)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, newVideoResponses(videos))
}

// Get handles GET /api/videos/{id}. Every successful read counts a view;
// there is no per-viewer deduplication.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	video, err := h.Videos.GetApprovedAndCountView(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("failed to load video", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, newVideoResponse(video))
}

// ToggleLike handles POST /api/videos/{id}/like. The flip and the counter
// delta are applied atomically by the store.
func (h VideoHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Access)
	if !ok {
		return
	}

	videoID := r.PathValue("id")
	liked, err := h.Likes.Toggle(ctx, videoID, user.ID, uuid.NewString(), h.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("failed to toggle like", "error", err, "videoId", videoID, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle like"})
		return
	}

	message := "video unliked"
	if liked {
		message = "video liked"
	}
	respondJSON(ctx, w, http.StatusOK, likeResponse{Message: message, Liked: liked})
}

// LikeStatus handles GET /api/videos/{id}/like-status for the caller.
func (h VideoHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := requireUser(w, r, h.Access)
	if !ok {
		return
	}

	liked, err := h.Likes.Exists(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to read like status", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to read like status"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked})
}

type uploadResponse struct {
	Message string        `json:"message"`
	Video   videoResponse `json:"video"`
}

type likeResponse struct {
	Message string `json:"message"`
	Liked   bool   `json:"liked"`
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
