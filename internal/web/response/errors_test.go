package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaironohi/shop/internal/domain"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestRenderDomainError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantError string
		wantField string
		wantApp   string
	}{
		{
			name:      "validation",
			err:       &domain.ValidationError{Field: "quantity", Message: "must be positive"},
			wantCode:  http.StatusBadRequest,
			wantError: "bad_request",
			wantField: "quantity",
			wantApp:   "bad_request",
		},
		{
			name:      "conflict",
			err:       fmt.Errorf("register: %w", &domain.ConflictError{Field: "email"}),
			wantCode:  http.StatusConflict,
			wantError: "conflict",
			wantField: "email",
			wantApp:   "conflict",
		},
		{
			name:      "expired token",
			err:       &domain.AuthError{Reason: domain.ReasonExpired},
			wantCode:  http.StatusUnauthorized,
			wantError: "unauthorized",
			wantApp:   "token_expired",
		},
		{
			name:      "invalid token",
			err:       &domain.AuthError{Reason: domain.ReasonInvalid},
			wantCode:  http.StatusForbidden,
			wantError: "forbidden",
			wantApp:   "token_invalid",
		},
		{
			name:      "not found",
			err:       &domain.NotFoundError{Resource: "product", ID: "p9"},
			wantCode:  http.StatusNotFound,
			wantError: "not_found",
			wantApp:   "product_not_found",
		},
		{
			name:      "empty cart",
			err:       domain.ErrEmptyCart,
			wantCode:  http.StatusBadRequest,
			wantError: "bad_request",
			wantApp:   "empty_cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RenderDomainError(w, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantApp, resp.Code)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.Equal(t, tt.err.Error(), resp.Message)
		})
	}
}

func TestRenderDomainError_HidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	RenderDomainError(w, errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "internal_error", resp.Code)
	assert.NotContains(t, resp.Message, "10.0.0.3")
}

func TestRenderTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	RenderTooManyRequests(w, 12)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
	assert.Equal(t, "too_many_requests", decodeError(t, w).Code)
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"yuki"}`},
		{name: "empty", body: ``, wantErr: "must not be empty"},
		{name: "malformed", body: `{"name":`, wantErr: "invalid body"},
		{name: "trailing value", body: `{"name":"a"}{"name":"b"}`, wantErr: "single JSON value"},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, wantErr: "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst payload
			err := Decode(w, r, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "yuki", dst.Name)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}
