package interceptors

import "context"

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	roleKey      = contextKey{"role"}
	sessionIDKey = contextKey{"session_id"}
)

// WithIdentity returns a context with user_id, role, and session_id set.
// Handlers read these via GetUserID, GetRole, GetSessionID.
func WithIdentity(ctx context.Context, userID, role, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetRole returns the role from context and true if set; otherwise "", false.
func GetRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(roleKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}
