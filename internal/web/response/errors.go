package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amaironohi/shop/internal/domain"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// StatusOf maps err to the HTTP status it is rendered with
func StatusOf(err error) int {
	var authErr *domain.AuthError
	switch {
	case errors.As(err, &authErr):
		if authErr.Reason == domain.ReasonInvalid {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RenderDomainError renders err with the status and code of its domain class.
// Unclassified errors become a 500 that does not expose the cause.
func RenderDomainError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	resp := &ErrorResponse{
		Error:   errorCodeFromStatus(status),
		Message: err.Error(),
		Code:    codeOf(err, status),
	}

	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		resp.Field = validation.Field
	case errors.As(err, &conflict):
		resp.Field = conflict.Field
	}

	if status == http.StatusInternalServerError {
		resp.Message = "Internal server error"
	}
	writeError(w, status, resp)
}

func codeOf(err error, status int) string {
	if reason, ok := domain.AuthReasonOf(err); ok {
		return string(reason)
	}
	if errors.Is(err, domain.ErrEmptyCart) {
		return "empty_cart"
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Resource + "_not_found"
	}
	return errorCodeFromStatus(status)
}

// RenderError renders err with statusCode and the status's error code
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	code := errorCodeFromStatus(statusCode)
	writeError(w, statusCode, &ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    code,
	})
}

func writeError(w http.ResponseWriter, status int, resp *ErrorResponse) {
	JSON(w, status, resp)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter) {
	RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
}

// RenderTooManyRequests renders a 429 Too Many Requests error
func RenderTooManyRequests(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	RenderError(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
}

// RenderInternalError renders a 500 without the cause
func RenderInternalError(w http.ResponseWriter) {
	RenderError(w, http.StatusInternalServerError, errors.New("internal server error"))
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	default:
		return "error"
	}
}
