package context

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}

	ctx = SetRequestID(ctx, "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-1")
	}
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetCurrentUser(ctx); ok {
		t.Error("GetCurrentUser() on empty context reported a user")
	}

	ctx = SetCurrentUser(ctx, 42)
	id, ok := GetCurrentUser(ctx)
	if !ok || id != 42 {
		t.Errorf("GetCurrentUser() = (%d, %v), want (42, true)", id, ok)
	}
}
