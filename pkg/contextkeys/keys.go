// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/garage/pkg/contextkeys"
//	ctx = contextkeys.WithIdentity(ctx, identity)
//	identity, _ := contextkeys.Identity(ctx)
package contextkeys

import (
	"context"

	"github.com/platinummonkey/garage/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.Identity
	// Set by: middleware.IdentityMiddleware (pkg/middleware/identity.go)
	// Required by: pkg/api handlers, which pass it on explicitly to services
	IdentityKey Key = "identity"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, error responses
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	LoggerKey Key = "logger"

	// GarageIDKey contains the garage id string of a garage-scoped request
	// Set by: middleware.GarageScopeMiddleware (pkg/middleware/garage.go)
	// Used by: Logger
	GarageIDKey Key = "garage_id"
)

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// Identity retrieves the authenticated identity from the context
func Identity(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*auth.Identity)
	return identity, ok && identity != nil
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithGarageID adds the garage id of a garage-scoped request to the context
func WithGarageID(ctx context.Context, garageID string) context.Context {
	return context.WithValue(ctx, GarageIDKey, garageID)
}

// GarageID retrieves the garage id from the context
func GarageID(ctx context.Context) string {
	id, _ := ctx.Value(GarageIDKey).(string)
	return id
}

// WithLogger adds a logger to the context. The logger type is owned by
// pkg/observability, which imports this package.
func WithLogger(ctx context.Context, logger any) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
