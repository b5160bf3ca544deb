// Package contextkeys provides centralized context key definitions
//
// All context keys used across the portal are defined here so their producers and
// consumers stay discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *middleware.AuthContext
	// Set by: middleware.Gate (pkg/middleware/gate.go)
	// Required by: Guarded handlers in pkg/api
	AuthKey Key = "auth_context"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, guard diagnostics
	RequestIDKey Key = "request_id"

	// UserIDKey contains the user ID string
	// Set by: middleware.Gate once a session resolves
	// Used by: Logger
	UserIDKey Key = "user_id"

	// ClientIDKey contains the browser client id string
	// Set by: middleware.ClientID
	// Used by: middleware.Gate to pick the client's permission resolver
	ClientIDKey Key = "client_id"

	// LoggerKey contains logrus.FieldLogger
	// Set by: middleware.RequestID
	// Used by: observability.FromContext
	LoggerKey Key = "logger"
)

// WithAuth adds authentication context to the context
func WithAuth(ctx context.Context, authCtx interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithClientID adds the browser client id to the context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetClientID retrieves the browser client id from context
func GetClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}
