// Package auth issues and validates the signed session tokens handed out on
// register and login.
//
// Tokens are compact HS256 JWTs. Nothing is stored server-side: a token is
// valid exactly when its signature checks out under the process secret and
// the current time is before its exp claim.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the account data embedded into a token.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
}

// Claims is the token payload: {userId, username, email, roles, iat, exp}.
type Claims struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Identity returns the identity part of the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username, Email: c.Email, Roles: c.Roles}
}

// TokenManager signs and verifies session tokens with a symmetric key.
type TokenManager struct {
	secretKey []byte
	lifetime  time.Duration
	now       func() time.Time
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock replaces time.Now, for issuing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager returns a TokenManager issuing tokens valid for lifetime.
func NewTokenManager(secretKey []byte, lifetime time.Duration, opts ...Option) *TokenManager {
	m := &TokenManager{
		secretKey: secretKey,
		lifetime:  lifetime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lifetime is the validity window of issued tokens.
func (m *TokenManager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue signs a token for id with iat = now and exp = now + lifetime.
func (m *TokenManager) Issue(id Identity) (string, error) {
	now := m.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Roles:    id.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	})

	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies signature and expiry of tokenString and returns its
// claims. Expired tokens yield common.ErrTokenExpired; bad signatures,
// foreign algorithms and malformed input yield common.ErrInvalidToken.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
