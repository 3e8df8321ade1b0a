package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/amaironohi/shop/internal/domain"
	webcontext "github.com/amaironohi/shop/internal/web/context"
	"github.com/amaironohi/shop/internal/web/response"
)

// SessionResolver turns a bearer token into a user id
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// Authenticate requires a valid bearer session. The resolved user id is
// stored in the request context; rejections are rendered from the resolver's
// error.
func Authenticate(resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.RenderDomainError(w, err)
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				response.RenderDomainError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(webcontext.SetCurrentUser(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", &domain.AuthError{Reason: domain.ReasonMissingToken}
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", &domain.AuthError{Reason: domain.ReasonInvalid}
	}
	return strings.TrimSpace(token), nil
}
