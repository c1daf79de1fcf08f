package authz

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to prevent collisions.
type contextKey int

const (
	callerKey contextKey = iota
	decisionKey
	requestIDKey
)

// CallerFromContext returns the authenticated caller, or nil if none is attached.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerKey).(*Caller)
	return c
}

// ContextWithCaller attaches the caller. Called by the identity layer that
// verified the request.
func ContextWithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// DecisionFromContext retrieves the decision stored by Guard.
// Returns nil on unguarded routes.
func DecisionFromContext(ctx context.Context) *Decision {
	d, _ := ctx.Value(decisionKey).(*Decision)
	return d
}

// ContextWithDecision returns a new context with the decision attached.
func ContextWithDecision(ctx context.Context, d *Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the request ID attached.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// maxRequestIDLen bounds client-supplied request ids stored in the audit log.
const maxRequestIDLen = 128

// ValidRequestID reports whether a client-supplied id may be used as is:
// non-empty, at most 128 bytes, printable ASCII without spaces.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 33 || id[i] > 126 {
			return false
		}
	}
	return true
}

// EnsureRequestID returns a context with a request ID, generating one if needed.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return ContextWithRequestID(ctx, id), id
}
