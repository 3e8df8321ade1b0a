package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amaironohi/shop/internal/domain"
	webcontext "github.com/amaironohi/shop/internal/web/context"
)

// pathInt64 extracts a positive integer path parameter
func pathInt64(r *http.Request, name string) (int64, error) {
	value := chi.URLParam(r, name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// pathString extracts a non-blank path parameter
func pathString(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", &domain.ValidationError{Field: name, Message: "is required"}
	}
	return value, nil
}

// currentUser returns the id stored by the session middleware
func currentUser(r *http.Request) (int64, error) {
	id, ok := webcontext.GetCurrentUser(r.Context())
	if !ok {
		return 0, &domain.AuthError{Reason: domain.ReasonMissingToken}
	}
	return id, nil
}
