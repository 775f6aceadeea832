package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token roles embedded in the "type" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AdminSubject is the subject carried by admin tokens. The admin principal
// is a configured credential pair, not a stored account.
const AdminSubject = "admin"

// ErrInvalidToken covers every verification failure: bad signature,
// malformed payload, unexpected signing method, or passed expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity extracted from a verified bearer token.
type Claims struct {
	Subject string
	Role    string
}

type tokenClaims struct {
	Role string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed, time-limited bearer tokens.
// Tokens are stateless: nothing is persisted, and a token stays valid until
// expiry. Ban enforcement happens at use time in the Guard, not here.
type TokenManager struct {
	secret  []byte
	userTTL time.Duration
	NowFunc func() time.Time
}

// NewTokenManager constructs a manager signing with the provided shared
// secret. Admin tokens live four times as long as user tokens.
func NewTokenManager(secret string, userTTL time.Duration) *TokenManager {
	if secret == "" {
		panic("auth: signing secret must not be empty")
	}
	if userTTL <= 0 {
		userTTL = 30 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), userTTL: userTTL}
}

// Issue creates a signed token for the subject with the given role.
func (m *TokenManager) Issue(subject, role string) (string, error) {
	if subject == "" {
		return "", errors.New("auth: subject must be provided")
	}
	if role != RoleUser && role != RoleAdmin {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}

	ttl := m.userTTL
	if role == RoleAdmin {
		ttl = 4 * m.userTTL
	}

	now := m.now()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Any failure
// maps to ErrInvalidToken so callers cannot distinguish a forged token from
// an expired one.
func (m *TokenManager) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{Subject: claims.Subject, Role: claims.Role}, nil
}

func (m *TokenManager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Now().UTC()
}
