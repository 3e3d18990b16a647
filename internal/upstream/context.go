package upstream

import "context"

type contextKey struct{}

var sessionIDKey contextKey

// WithSessionID tags a context with the browser-context session ID so the
// transport can look up the stored token for the call.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}

// SessionID extracts the session ID from a tagged context.
func SessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDKey).(string)
	return sid, ok && sid != ""
}
