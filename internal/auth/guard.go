package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/clipfeed/backend/internal/models"
)

var (
	// ErrUnauthorized indicates the caller presented no usable identity:
	// missing/invalid token, wrong role, or an account that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid identity that is banned from the platform.
	ErrForbidden = errors.New("forbidden")
)

// UserFinder loads accounts for token resolution.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// AdminCredentials is the single static admin principal. It is compared at
// login time and never stored alongside user accounts.
type AdminCredentials struct {
	Username string
	Password string
}

// Guard resolves bearer tokens to identities and enforces role and ban
// checks. It is read-only: tokens are never refreshed or rotated here, and
// the current ban flag is re-read on every request so a ban takes effect
// immediately even against outstanding tokens.
type Guard struct {
	Tokens TokenVerifier
	Users  UserFinder
	Admin  AdminCredentials
}

// AuthenticateUser verifies a user-role token and loads the account behind
// it. Banned accounts fail with ErrForbidden.
func (g Guard) AuthenticateUser(ctx context.Context, token string) (models.User, error) {
	claims, err := g.Tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}
	if claims.Role != RoleUser {
		return models.User{}, ErrUnauthorized
	}

	user, err := g.Users.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}
	if user.IsBanned {
		return models.User{}, ErrForbidden
	}

	return user, nil
}

// AuthenticateAdmin verifies the token carries the admin role.
func (g Guard) AuthenticateAdmin(token string) error {
	claims, err := g.Tokens.Verify(token)
	if err != nil {
		return ErrUnauthorized
	}
	if claims.Role != RoleAdmin {
		return ErrUnauthorized
	}
	return nil
}

// CheckAdminCredentials compares the presented pair against the configured
// admin principal in constant time.
func (g Guard) CheckAdminCredentials(username, password string) bool {
	if g.Admin.Username == "" || g.Admin.Password == "" {
		return false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(g.Admin.Username))
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(g.Admin.Password))
	return userMatch&passMatch == 1
}
