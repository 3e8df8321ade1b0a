package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amaironohi/shop/internal/domain"
)

type fakeUsers map[int64]bool

func (f fakeUsers) UserExists(_ context.Context, userID int64) (bool, error) {
	return f[userID], nil
}

type failingUsers struct{}

func (failingUsers) UserExists(context.Context, int64) (bool, error) {
	return false, errors.New("database is down")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func signRaw(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestNewSessionIssuerDefaultsTTL(t *testing.T) {
	issuer := NewSessionIssuer("secret", 0, fakeUsers{})
	if issuer.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", issuer.TTL(), DefaultTokenTTL)
	}
}

func TestSessionIssuerRoundTrip(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", time.Hour, fakeUsers{7: true})

	token, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}

	userID, err := issuer.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != 7 {
		t.Errorf("Resolve() = %d, want 7", userID)
	}
}

func TestSessionIssuerResolveRejections(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	secret := []byte("test-secret")
	users := fakeUsers{1: true}

	valid := func(sub string, exp time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)}
	}

	tests := []struct {
		name       string
		token      string
		now        time.Time
		wantReason domain.AuthReason
	}{
		{
			name:       "empty token",
			token:      "",
			now:        issuedAt,
			wantReason: domain.ReasonMissingToken,
		},
		{
			name:       "expired token",
			token:      signRaw(t, jwt.SigningMethodHS256, secret, valid("1", issuedAt.Add(30*time.Minute))),
			now:        issuedAt.Add(31 * time.Minute),
			wantReason: domain.ReasonExpired,
		},
		{
			name:       "wrong secret",
			token:      signRaw(t, jwt.SigningMethodHS256, []byte("other"), valid("1", issuedAt.Add(time.Hour))),
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
		{
			name:       "expired and wrong secret",
			token:      signRaw(t, jwt.SigningMethodHS256, []byte("other"), valid("1", issuedAt.Add(-time.Hour))),
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
		{
			name:       "other algorithm",
			token:      signRaw(t, jwt.SigningMethodHS512, secret, valid("1", issuedAt.Add(time.Hour))),
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
		{
			name:       "garbage",
			token:      "not.a.token",
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
		{
			name:       "no expiry",
			token:      signRaw(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "1"}),
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
		{
			name:       "no subject",
			token:      signRaw(t, jwt.SigningMethodHS256, secret, valid("", issuedAt.Add(time.Hour))),
			now:        issuedAt,
			wantReason: domain.ReasonMissingIdentity,
		},
		{
			name:       "non-numeric subject",
			token:      signRaw(t, jwt.SigningMethodHS256, secret, valid("alice", issuedAt.Add(time.Hour))),
			now:        issuedAt,
			wantReason: domain.ReasonInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := NewSessionIssuer(string(secret), 30*time.Minute, users).WithClock(fixedClock(tt.now))

			_, err := issuer.Resolve(context.Background(), tt.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("Resolve() error = %v, want unauthorized", err)
			}
			reason, _ := domain.AuthReasonOf(err)
			if reason != tt.wantReason {
				t.Errorf("Resolve() reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestSessionIssuerExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewSessionIssuer("test-secret", 30*time.Minute, fakeUsers{1: true}).WithClock(fixedClock(now))

	token, err := issuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	issuer.WithClock(fixedClock(now.Add(29 * time.Minute)))
	if _, err := issuer.Resolve(context.Background(), token); err != nil {
		t.Fatalf("Resolve() before expiry error = %v", err)
	}

	issuer.WithClock(fixedClock(now.Add(31 * time.Minute)))
	_, err = issuer.Resolve(context.Background(), token)
	if reason, _ := domain.AuthReasonOf(err); reason != domain.ReasonExpired {
		t.Errorf("Resolve() after expiry reason = %q, want %q", reason, domain.ReasonExpired)
	}
}

func TestSessionIssuerUnknownUser(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", time.Hour, fakeUsers{})
	token, err := issuer.Issue(99)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = issuer.Resolve(context.Background(), token)
	if !domain.IsNotFoundResource(err, "user") {
		t.Errorf("Resolve() error = %v, want user not found", err)
	}
}

func TestSessionIssuerLookupFailure(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", time.Hour, failingUsers{})
	token, err := issuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = issuer.Resolve(context.Background(), token)
	if err == nil || errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want a plain lookup failure", err)
	}
}
