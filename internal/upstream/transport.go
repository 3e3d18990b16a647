package upstream

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/token"
)

// Invalidator tears down a session after the server signals that its token
// is no longer valid. The session manager provides the implementation.
type Invalidator interface {
	Invalidate(ctx context.Context, sid string)
}

// authTransport stamps outgoing platform API calls with the stored bearer
// token and reacts to authentication failures. It is stateless apart from
// reading the token store.
type authTransport struct {
	base   http.RoundTripper
	store  token.Store
	logger *zap.Logger

	mu          sync.RWMutex
	invalidator Invalidator
}

func newAuthTransport(base http.RoundTripper, store token.Store, logger *zap.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, store: store, logger: logger}
}

func (t *authTransport) bind(inv Invalidator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalidator = inv
}

// RoundTrip attaches the bearer credential when a token is present and
// dispatches unmodified otherwise. A 401 on an authenticated call clears
// the session before the response becomes observable to the caller, so a
// racing second call never reads a half-cleared state.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	authenticated := false
	sid, ok := SessionID(ctx)
	if ok {
		bearer, err := t.store.GetToken(ctx, sid)
		if err != nil {
			t.logger.Warn("token store read failed", zap.Error(err))
		} else if bearer != "" {
			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+bearer)
			authenticated = true
		}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if authenticated && resp.StatusCode == http.StatusUnauthorized {
		t.invalidate(ctx, sid)
	}
	return resp, nil
}

// invalidate is idempotent: a second concurrent 401 observes already
// cleared state and is a no-op.
func (t *authTransport) invalidate(ctx context.Context, sid string) {
	t.mu.RLock()
	inv := t.invalidator
	t.mu.RUnlock()

	if inv != nil {
		inv.Invalidate(ctx, sid)
		return
	}
	if err := t.store.Clear(ctx, sid); err != nil {
		t.logger.Warn("token store clear failed", zap.Error(err))
	}
}
