package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/clipfeed/backend/internal/auth"
	"github.com/clipfeed/backend/internal/models"
	"github.com/clipfeed/backend/internal/repositories"
)

// In-memory store doubles shared across the handler tests.

type memoryUserStore struct {
	users map[string]models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]models.User)}
}

func (s *memoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) List(_ context.Context, limit int) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryUserStore) SetBanStatus(_ context.Context, id string, banned bool, reason string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.IsBanned = banned
	if banned {
		user.BanReason = reason
		at := time.Now().UTC()
		user.BannedAt = &at
	} else {
		user.BanReason = ""
		user.BannedAt = nil
	}
	s.users[id] = user
	return nil
}

type memoryVideoStore struct {
	videos      map[string]models.Video
	rejectCalls int
}

func newMemoryVideoStore() *memoryVideoStore {
	return &memoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *memoryVideoStore) Create(_ context.Context, video models.Video) error {
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *memoryVideoStore) sorted() []models.Video {
	out := make([]models.Video, 0, len(s.videos))
	for _, video := range s.videos {
		out = append(out, video)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryVideoStore) ListApproved(_ context.Context, skip, limit int) ([]models.Video, error) {
	approved := make([]models.Video, 0, len(s.videos))
	for _, video := range s.sorted() {
		if video.ModerationStatus == models.ModerationApproved {
			approved = append(approved, video)
		}
	}
	if skip >= len(approved) {
		return nil, nil
	}
	approved = approved[skip:]
	if len(approved) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (s *memoryVideoStore) ListAll(_ context.Context, limit int) ([]models.Video, error) {
	out := s.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryVideoStore) GetApprovedAndCountView(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok || video.ModerationStatus != models.ModerationApproved {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return video, nil
}

func (s *memoryVideoStore) Exists(_ context.Context, id string) (bool, error) {
	_, ok := s.videos[id]
	return ok, nil
}

func (s *memoryVideoStore) SetModeration(_ context.Context, id, status, reason string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.ModerationStatus = status
	if status == models.ModerationRejected {
		video.IsFlagged = true
		video.RejectionReason = reason
	}
	s.videos[id] = video
	return nil
}

func (s *memoryVideoStore) RejectPendingByOwner(_ context.Context, userID string) error {
	s.rejectCalls++
	for id, video := range s.videos {
		if video.UserID == userID && video.ModerationStatus == models.ModerationPending {
			video.ModerationStatus = models.ModerationRejected
			video.IsFlagged = true
			s.videos[id] = video
		}
	}
	return nil
}

func (s *memoryVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type memoryCommentStore struct {
	comments map[string]models.Comment
}

func newMemoryCommentStore() *memoryCommentStore {
	return &memoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *memoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryCommentStore) ListForVideo(_ context.Context, videoID string, skip, limit int) ([]models.Comment, error) {
	out := make([]models.Comment, 0, len(s.comments))
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type memoryLikeStore struct {
	videos *memoryVideoStore
	likes  map[string]bool
}

func newMemoryLikeStore(videos *memoryVideoStore) *memoryLikeStore {
	return &memoryLikeStore{videos: videos, likes: make(map[string]bool)}
}

func likeKey(videoID, userID string) string {
	return videoID + "/" + userID
}

func (s *memoryLikeStore) Toggle(_ context.Context, videoID, userID, _ string, _ time.Time) (bool, error) {
	video, ok := s.videos.videos[videoID]
	if !ok {
		return false, repositories.ErrNotFound
	}

	key := likeKey(videoID, userID)
	if s.likes[key] {
		delete(s.likes, key)
		video.Likes--
		s.videos.videos[videoID] = video
		return false, nil
	}
	s.likes[key] = true
	video.Likes++
	s.videos.videos[videoID] = video
	return true, nil
}

func (s *memoryLikeStore) Exists(_ context.Context, videoID, userID string) (bool, error) {
	return s.likes[likeKey(videoID, userID)], nil
}

type stubStatsProvider struct {
	stats models.AdminStats
	err   error
}

func (s stubStatsProvider) Collect(context.Context) (models.AdminStats, error) {
	return s.stats, s.err
}

type memoryPayloadStore struct {
	saved map[string]int
}

func newMemoryPayloadStore() *memoryPayloadStore {
	return &memoryPayloadStore{saved: make(map[string]int)}
}

func (s *memoryPayloadStore) Save(_ context.Context, key string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = len(data)
	return fmt.Sprintf("https://cdn.test/%s", key), nil
}

type blockedLimiter struct{}

func (blockedLimiter) Allow(string) bool { return false }

// newTestAccess wires a real token manager and guard over the in-memory user
// store so handler tests exercise the same token path as production.
func newTestAccess(users *memoryUserStore) (auth.Guard, *auth.TokenManager) {
	manager := auth.NewTokenManager("handler-test-secret", 30*time.Minute)
	guard := auth.Guard{
		Tokens: manager,
		Users:  users,
		Admin:  auth.AdminCredentials{Username: "admin", Password: "admin-pass"},
	}
	return guard, manager
}

func issueToken(t *testing.T, manager *auth.TokenManager, subject, role string) string {
	t.Helper()
	token, err := manager.Issue(subject, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func seedUser(store *memoryUserStore, id, username string) models.User {
	user := models.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
	store.users[id] = user
	return user
}
