package handlers

import (
	"net/http"
	"time"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:   deps.Users,
		Tokens:  deps.Tokens,
		Access:  deps.Access,
		Limiter: deps.LoginLimiter,
		NowFunc: deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:   deps.Videos,
		Likes:    deps.Likes,
		Users:    deps.Users,
		Payloads: deps.Payloads,
		Filter:   deps.Filter,
		Access:   deps.Access,
		NowFunc:  deps.NowFunc,
	}
	comments := CommentHandler{
		Comments: deps.Comments,
		Videos:   deps.Videos,
		Filter:   deps.Filter,
		Access:   deps.Access,
		NowFunc:  deps.NowFunc,
	}
	admin := AdminHandler{
		Videos:   deps.Videos,
		Users:    deps.Users,
		Comments: deps.Comments,
		Stats:    deps.Stats,
		Access:   deps.Access,
	}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("POST /api/register", auth.Register)
	mux.HandleFunc("POST /api/login", auth.Login)
	mux.HandleFunc("POST /api/admin/login", auth.AdminLogin)

	mux.HandleFunc("POST /api/videos", videos.Upload)
	mux.HandleFunc("GET /api/videos", videos.List)
	mux.HandleFunc("GET /api/videos/{id}", videos.Get)
	mux.HandleFunc("POST /api/videos/{id}/like", videos.ToggleLike)
	mux.HandleFunc("GET /api/videos/{id}/like-status", videos.LikeStatus)
	mux.HandleFunc("POST /api/videos/{id}/comments", comments.Add)
	mux.HandleFunc("GET /api/videos/{id}/comments", comments.List)

	mux.HandleFunc("GET /api/admin/videos", admin.ListVideos)
	mux.HandleFunc("POST /api/admin/videos/{id}/moderate", admin.Moderate)
	mux.HandleFunc("DELETE /api/admin/videos/{id}", admin.DeleteVideo)
	mux.HandleFunc("GET /api/admin/users", admin.ListUsers)
	mux.HandleFunc("POST /api/admin/users/{id}/ban", admin.BanUser)
	mux.HandleFunc("POST /api/admin/users/{id}/unban", admin.UnbanUser)
	mux.HandleFunc("DELETE /api/admin/comments/{id}", admin.DeleteComment)
	mux.HandleFunc("GET /api/admin/stats", admin.GetStats)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Videos       VideoStore
	Comments     CommentStore
	Likes        LikeStore
	Stats        StatsProvider
	Payloads     PayloadStore
	Filter       ContentFilter
	Tokens       TokenIssuer
	Access       AccessController
	LoginLimiter RateLimiter
	NowFunc      func() time.Time
}
