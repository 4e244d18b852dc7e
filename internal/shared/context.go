package shared

import "context"

type contextKey string

const (
	sessionContextKey   contextKey = "printshop.session"
	requestIDContextKey contextKey = "printshop.request_id"
)

// WithSession stores the session on the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFrom retrieves the current session, or nil when absent.
func SessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFrom retrieves the request identifier, or "" when absent.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
