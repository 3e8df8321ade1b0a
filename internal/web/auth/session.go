package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amaironohi/shop/internal/domain"
)

// DefaultTokenTTL is the lifetime of an issued session token
const DefaultTokenTTL = 30 * time.Minute

// UserFinder reports whether a user id still refers to a stored user
type UserFinder interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

// SessionIssuer issues and resolves stateless HS256 session tokens.
// The token subject is the decimal user id.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	users  UserFinder
	now    func() time.Time
}

// NewSessionIssuer creates an issuer signing with secret.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewSessionIssuer(secret string, ttl time.Duration, users UserFinder) *SessionIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and expiry checks
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// TTL returns the token lifetime
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed token for userID
func (s *SessionIssuer) Issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Resolve verifies token and returns the user id it was issued for.
// Rejections are *domain.AuthError; a well-formed token for a user that no
// longer exists is a *domain.NotFoundError.
func (s *SessionIssuer) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, &domain.AuthError{Reason: domain.ReasonMissingToken}
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, &domain.AuthError{Reason: domain.ReasonExpired, Err: err}
		}
		return 0, &domain.AuthError{Reason: domain.ReasonInvalid, Err: err}
	}

	if claims.Subject == "" {
		return 0, &domain.AuthError{Reason: domain.ReasonMissingIdentity}
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, &domain.AuthError{Reason: domain.ReasonInvalid, Err: err}
	}

	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up session user: %w", err)
	}
	if !exists {
		return 0, &domain.NotFoundError{Resource: "user", ID: claims.Subject}
	}
	return userID, nil
}
