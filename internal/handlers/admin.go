package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clipfeed/backend/internal/logging"
	"github.com/clipfeed/backend/internal/models"
	"github.com/clipfeed/backend/internal/repositories"
)

const adminListCap = 1000

const adminBanReason = "Violation of community guidelines"

// AdminHandler implements the moderation and user management console. Every
// endpoint requires an admin-role token; user tokens are rejected outright.
type AdminHandler struct {
	Videos   VideoStore
	Users    UserStore
	Comments CommentStore
	Stats    StatsProvider
	Access   AccessController
}

// ListVideos handles GET /api/admin/videos, unfiltered by moderation status.
func (h AdminHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	videos, err := h.Videos.ListAll(ctx, adminListCap)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list videos", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, newVideoResponses(videos))
}

// Moderate handles POST /api/admin/videos/{id}/moderate. Moderation is
// repeatable: any state may move to approved or rejected, last write wins.
func (h AdminHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !requireAdmin(w, r, h.Access) {
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid moderate payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status != models.ModerationApproved && req.Status != models.ModerationRejected {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	id := r.PathValue("id")
	if err := h.Videos.SetModeration(ctx, id, req.Status, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("failed to moderate video", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to moderate video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"message":  "video " + req.Status,
		"video_id": id,
	})
}

// ListUsers handles GET /api/admin/users. Password hashes never leave the
// store boundary.
func (h AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	users, err := h.Users.List(ctx, adminListCap)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list users", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list users"})
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// BanUser handles POST /api/admin/users/{id}/ban. Banning also rejects the
// user's still-pending videos; the two writes are not atomic, but the
// cascade is idempotent so a retry repairs a partial failure.
func (h AdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !requireAdmin(w, r, h.Access) {
		return
	}

	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid ban payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = adminBanReason
	}

	id := r.PathValue("id")
	if err := h.Users.SetBanStatus(ctx, id, true, reason); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		logger.Error("failed to ban user", "error", err, "userId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to ban user"})
		return
	}

	if err := h.Videos.RejectPendingByOwner(ctx, id); err != nil {
		logger.Error("failed to reject pending videos", "error", err, "userId", id)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "user banned successfully"})
}

// UnbanUser handles POST /api/admin/users/{id}/unban: clears the flag and
// the stored reason.
func (h AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	id := r.PathValue("id")
	if err := h.Users.SetBanStatus(ctx, id, false, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		logging.FromContext(ctx).Error("failed to unban user", "error", err, "userId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to unban user"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "user unbanned successfully"})
}

// DeleteVideo handles DELETE /api/admin/videos/{id}, cascading to the
// video's comments and likes.
func (h AdminHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	id := r.PathValue("id")
	if err := h.Videos.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logging.FromContext(ctx).Error("failed to delete video", "error", err, "videoId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "video deleted successfully"})
}

// DeleteComment handles DELETE /api/admin/comments/{id}.
func (h AdminHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	id := r.PathValue("id")
	if err := h.Comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "comment not found"})
			return
		}
		logging.FromContext(ctx).Error("failed to delete comment", "error", err, "commentId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete comment"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "comment deleted successfully"})
}

// GetStats handles GET /api/admin/stats requests.
func (h AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requireAdmin(w, r, h.Access) {
		return
	}

	stats, err := h.Stats.Collect(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("failed to collect stats", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to collect stats"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, statsResponse{
		TotalUsers:    stats.TotalUsers,
		BannedUsers:   stats.BannedUsers,
		TotalVideos:   stats.TotalVideos,
		FlaggedVideos: stats.FlaggedVideos,
		PendingVideos: stats.PendingVideos,
		TotalComments: stats.TotalComments,
	})
}

type moderateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type banRequest struct {
	Reason string `json:"reason"`
}
