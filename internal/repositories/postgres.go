package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipfeed/backend/internal/db"
	"github.com/clipfeed/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new account. Duplicate email or username surfaces as
// ErrConflict through the table's unique constraints.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, created_at, is_banned, ban_reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Username, user.Email, user.Password, user.CreatedAt, user.IsBanned, user.BanReason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

const userColumns = `id, username, email, password_hash, created_at, is_banned, ban_reason, banned_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user     models.User
		bannedAt sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.IsBanned, &user.BanReason, &bannedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	if bannedAt.Valid {
		t := bannedAt.Time.UTC()
		user.BannedAt = &t
	}
	return user, nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByEmail fetches an account by its email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindByUsername fetches an account by its display name.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// List returns accounts in reverse chronological order, capped at limit.
func (r *PostgresUserRepository) List(ctx context.Context, limit int) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+userColumns+`
        FROM users
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// SetBanStatus flips the ban flag. Banning records the reason and timestamp;
// unbanning clears both.
func (r *PostgresUserRepository) SetBanStatus(ctx context.Context, id string, banned bool, reason string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var tag pgconn.CommandTag
	if banned {
		tag, err = conn.Exec(ctx, `
            UPDATE users
            SET is_banned = TRUE, ban_reason = $2, banned_at = $3
            WHERE id = $1
        `, id, reason, time.Now().UTC())
	} else {
		tag, err = conn.Exec(ctx, `
            UPDATE users
            SET is_banned = FALSE, ban_reason = '', banned_at = NULL
            WHERE id = $1
        `, id)
	}
	if err != nil {
		return fmt.Errorf("update ban status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, title, description, payload_key, payload_url, user_id, username,
        likes, views, created_at, is_flagged, moderation_status, rejection_reason`

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.Title, &video.Description, &video.PayloadKey, &video.PayloadURL,
		&video.UserID, &video.Username, &video.Likes, &video.Views, &video.CreatedAt,
		&video.IsFlagged, &video.ModerationStatus, &video.RejectionReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return video, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := video.ModerationStatus
	if status == "" {
		status = models.ModerationPending
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, title, description, payload_key, payload_url, user_id, username,
                likes, views, created_at, is_flagged, moderation_status, rejection_reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.Title, video.Description, video.PayloadKey, video.PayloadURL,
		video.UserID, video.Username, video.Likes, video.Views, video.CreatedAt,
		video.IsFlagged, status, video.RejectionReason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// ListApproved returns publicly visible videos, newest first.
func (r *PostgresVideoRepository) ListApproved(ctx context.Context, skip, limit int) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE moderation_status = $1
        ORDER BY created_at DESC
        OFFSET $2 LIMIT $3
    `, models.ModerationApproved, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query approved videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListAll returns every video regardless of moderation status.
func (r *PostgresVideoRepository) ListAll(ctx context.Context, limit int) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// GetApprovedAndCountView loads an approved video and bumps its view counter
// in a single statement, so concurrent reads never lose increments.
func (r *PostgresVideoRepository) GetApprovedAndCountView(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1 AND moderation_status = $2
        RETURNING `+videoColumns+`
    `, id, models.ModerationApproved)

	return scanVideo(row)
}

// Exists reports whether a video row is present, regardless of status.
func (r *PostgresVideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var found bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check video exists: %w", err)
	}
	return found, nil
}

// SetModeration records an admin moderation decision. A rejection marks the
// video flagged and stores the reason; an approval only moves the status and
// leaves any earlier flag in place.
func (r *PostgresVideoRepository) SetModeration(ctx context.Context, id, status, reason string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var tag pgconn.CommandTag
	if status == models.ModerationRejected {
		tag, err = conn.Exec(ctx, `
            UPDATE videos
            SET moderation_status = $2, is_flagged = TRUE, rejection_reason = $3
            WHERE id = $1
        `, id, status, reason)
	} else {
		tag, err = conn.Exec(ctx, `
            UPDATE videos
            SET moderation_status = $2
            WHERE id = $1
        `, id, status)
	}
	if err != nil {
		return fmt.Errorf("update moderation status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RejectPendingByOwner flips the owner's still-pending videos to
// rejected+flagged. Re-running it is a no-op, which makes the ban cascade
// safe to repair after a partial failure.
func (r *PostgresVideoRepository) RejectPendingByOwner(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        UPDATE videos
        SET moderation_status = $2, is_flagged = TRUE
        WHERE user_id = $1 AND moderation_status = $3
    `, userID, models.ModerationRejected, models.ModerationPending)
	if err != nil {
		return fmt.Errorf("reject pending videos: %w", err)
	}

	return nil
}

// Delete removes a video and its dependent comments and likes in one
// transaction. The cascade is explicit: children first, then the video.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete video comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit video delete: %w", err)
	}

	return nil
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment. A missing parent video surfaces as
// ErrNotFound through the foreign key.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, video_id, user_id, username, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.Content, comment.VideoID, comment.UserID, comment.Username, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrConflict
			case pgForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForVideo returns a video's comments, oldest first, with a skip/limit window.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string, skip, limit int) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, content, video_id, user_id, username, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at
        OFFSET $2 LIMIT $3
    `, videoID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.Content, &comment.VideoID, &comment.UserID, &comment.Username, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Delete removes a single comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

const toggleMaxAttempts = 5

// Toggle flips the like state for the (user, video) pair. The like row and
// the counter move together inside a transaction: a conditional insert
// (unique on video_id+user_id) or conditional delete decides the direction,
// and the counter delta is an atomic increment keyed off rows-affected, so
// concurrent toggles never lose updates. Serialization failures and the rare
// interleaving where both the insert and the delete observe someone else's
// flip are retried.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, videoID, userID, likeID string, now time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	for attempt := 0; attempt < toggleMaxAttempts; attempt++ {
		liked, done, err := toggleOnce(ctx, conn, videoID, userID, likeID, now)
		if err != nil {
			if isSerializationFailure(err) && attempt < toggleMaxAttempts-1 {
				continue
			}
			return false, err
		}
		if done {
			return liked, nil
		}
	}

	return false, fmt.Errorf("toggle like for video %s: exceeded max attempts (%d)", videoID, toggleMaxAttempts)
}

func toggleOnce(ctx context.Context, conn txBeginner, videoID, userID, likeID string, now time.Time) (liked, done bool, err error) {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, false, fmt.Errorf("begin like transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        INSERT INTO likes (id, video_id, user_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (video_id, user_id) DO NOTHING
    `, likeID, videoID, userID, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, false, ErrNotFound
		}
		return false, false, fmt.Errorf("insert like: %w", err)
	}

	if tag.RowsAffected() == 1 {
		if _, err := tx.Exec(ctx, `UPDATE videos SET likes = likes + 1 WHERE id = $1`, videoID); err != nil {
			return false, false, fmt.Errorf("increment like counter: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return false, false, fmt.Errorf("commit like: %w", err)
		}
		return true, true, nil
	}

	deleted, err := tx.Exec(ctx, `DELETE FROM likes WHERE video_id = $1 AND user_id = $2`, videoID, userID)
	if err != nil {
		return false, false, fmt.Errorf("delete like: %w", err)
	}
	if deleted.RowsAffected() == 0 {
		// The conflicting row disappeared under us; retry the whole flip.
		return false, false, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE videos SET likes = likes - 1 WHERE id = $1`, videoID); err != nil {
		return false, false, fmt.Errorf("decrement like counter: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, false, fmt.Errorf("commit unlike: %w", err)
	}

	return false, true, nil
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// Exists reports whether the user currently likes the video.
func (r *PostgresLikeRepository) Exists(ctx context.Context, videoID, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var found bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM likes WHERE video_id = $1 AND user_id = $2)
    `, videoID, userID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check like exists: %w", err)
	}

	return found, nil
}

// PostgresStatsRepository aggregates counts for the admin console.
type PostgresStatsRepository struct {
	pool db.Pool
}

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// Collect runs the six aggregate counts. Each count is its own query; the
// snapshot is not transactionally consistent across them.
func (r *PostgresStatsRepository) Collect(ctx context.Context) (models.AdminStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.AdminStats
	counts := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM users`, nil, &stats.TotalUsers},
		{`SELECT COUNT(*) FROM users WHERE is_banned`, nil, &stats.BannedUsers},
		{`SELECT COUNT(*) FROM videos`, nil, &stats.TotalVideos},
		{`SELECT COUNT(*) FROM videos WHERE is_flagged`, nil, &stats.FlaggedVideos},
		{`SELECT COUNT(*) FROM videos WHERE moderation_status = $1`, []any{models.ModerationPending}, &stats.PendingVideos},
		{`SELECT COUNT(*) FROM comments`, nil, &stats.TotalComments},
	}

	for _, c := range counts {
		if err := conn.QueryRow(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return models.AdminStats{}, fmt.Errorf("count stats: %w", err)
		}
	}

	return stats, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ StatsRepository = (*PostgresStatsRepository)(nil)
