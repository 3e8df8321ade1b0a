package domain

import (
	"errors"
	"fmt"
)

// Sentinel classes. The typed errors below match these with errors.Is.
var (
	// ErrValidation is the class of malformed or out-of-range input
	ErrValidation = errors.New("validation failed")
	// ErrConflict is the class of duplicate unique fields
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is the class of credential and session rejections
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is the class of missing records
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned by checkout when the cart is absent or has no lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotificationFailed marks a notification that could not be delivered.
	// It is logged and never returned to a checkout caller.
	ErrNotificationFailed = errors.New("notification failed")
)

// ValidationError reports an invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError reports a unique field that is already taken
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// Is matches ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AuthReason distinguishes authentication failures
type AuthReason string

const (
	// ReasonMissingToken means no bearer token was presented
	ReasonMissingToken AuthReason = "missing_token"
	// ReasonMissingIdentity means the token carries no subject
	ReasonMissingIdentity AuthReason = "missing_identity"
	// ReasonExpired means the token is past its expiry
	ReasonExpired AuthReason = "token_expired"
	// ReasonInvalid means the token failed signature or format checks
	ReasonInvalid AuthReason = "token_invalid"
	// ReasonInvalidCredentials covers both unknown email and wrong password
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
)

// AuthError is a rejected credential or session
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	switch e.Reason {
	case ReasonMissingToken:
		return "authorization required"
	case ReasonMissingIdentity:
		return "token carries no user identity"
	case ReasonExpired:
		return "token has expired"
	case ReasonInvalid:
		return "token verification failed"
	case ReasonInvalidCredentials:
		return "invalid credentials"
	default:
		return "unauthorized"
	}
}

// Unwrap returns the underlying cause, if any
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches ErrUnauthorized
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NotFoundError reports a missing record of the named resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthReasonOf returns the reason of an AuthError in err's chain
func AuthReasonOf(err error) (AuthReason, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason, true
	}
	return "", false
}

// IsNotFoundResource reports whether err is a NotFoundError for resource
func IsNotFoundResource(err error, resource string) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Resource == resource
}
