// Package context holds the typed request-scoped values shared by the
// middleware and handlers.
package context

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey int

const (
	requestIDKey contextKey = iota
	currentUserKey
)

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRequestID adds the request ID to the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetCurrentUser extracts the authenticated user ID from the context.
// ok is false when the request carried no resolved session.
func GetCurrentUser(ctx context.Context) (userID int64, ok bool) {
	userID, ok = ctx.Value(currentUserKey).(int64)
	return userID, ok
}

// SetCurrentUser adds the authenticated user ID to the context
func SetCurrentUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, currentUserKey, userID)
}
