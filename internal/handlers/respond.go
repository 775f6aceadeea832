package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/clipfeed/backend/internal/auth"
	"github.com/clipfeed/backend/internal/logging"
	"github.com/clipfeed/backend/internal/models"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireUser resolves the caller's bearer token to an account. A banned
// account is rejected here on every request, regardless of token expiry.
func requireUser(w http.ResponseWriter, r *http.Request, access AccessController) (models.User, bool) {
	ctx := r.Context()
	user, err := access.AuthenticateUser(ctx, bearerToken(r))
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "user is banned"})
		} else {
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid authentication credentials"})
		}
		return models.User{}, false
	}
	return user, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request, access AccessController) bool {
	if err := access.AuthenticateAdmin(bearerToken(r)); err != nil {
		respondJSON(r.Context(), w, http.StatusUnauthorized, map[string]string{"error": "admin access required"})
		return false
	}
	return true
}

// pageWindow parses skip/limit query parameters, falling back to the
// provided default and capping the page size.
func pageWindow(r *http.Request, defaultLimit, maxLimit int) (skip, limit int) {
	limit = defaultLimit

	if raw := r.URL.Query().Get("skip"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			skip = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
