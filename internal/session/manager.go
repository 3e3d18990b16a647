package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/recovery-portal/internal/api/dto"
	"github.com/spec-kit/recovery-portal/internal/domain"
	"github.com/spec-kit/recovery-portal/internal/token"
	"github.com/spec-kit/recovery-portal/internal/upstream"
	apperrors "github.com/spec-kit/recovery-portal/pkg/util"
)

// Manager is the single source of truth for "who is logged in" per browser
// context, and the only component permitted to initiate login and logout
// against the platform API. It is the sole writer of the published session.
type Manager struct {
	store  token.Store
	api    *upstream.Client
	stream *Stream
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewManager constructs the manager over a token store and API client.
func NewManager(store token.Store, api *upstream.Client, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		api:      api,
		stream:   NewStream(),
		logger:   logger,
		sessions: make(map[string]*domain.Session),
	}
}

// Stream exposes the session-change stream for observers.
func (m *Manager) Stream() *Stream {
	return m.stream
}

// Current returns the session for a browser context, hydrating it from the
// token store on first read. Hydration is trust-on-read: stored values are
// accepted without contacting the server until the next API call.
func (m *Manager) Current(ctx context.Context, sid string) (*domain.Session, error) {
	if sid == "" {
		return nil, nil
	}

	m.mu.RLock()
	sess, cached := m.sessions[sid]
	m.mu.RUnlock()
	if cached {
		// The store is authoritative: a sweep or backend TTL may have
		// removed the record since hydration, and a stale cache entry
		// would keep a tokenless session alive.
		has, err := m.store.HasToken(ctx, sid)
		if err != nil {
			return nil, err
		}
		if has {
			return sess, nil
		}
		m.evict(sid)
		return nil, nil
	}

	bearer, err := m.store.GetToken(ctx, sid)
	if err != nil {
		return nil, err
	}
	if bearer == "" {
		return nil, nil
	}
	role, err := m.store.GetRole(ctx, sid)
	if err != nil {
		return nil, err
	}
	username, err := m.store.GetUsername(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !role.Valid() || username == "" {
		return nil, nil
	}

	sess = &domain.Session{Username: username, Role: role, Token: bearer}

	m.mu.Lock()
	if existing, ok := m.sessions[sid]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[sid] = sess
	m.mu.Unlock()

	m.stream.Publish(sid, sess)
	return sess, nil
}

// Login authenticates against the platform API. On success the token, role
// and username are persisted, the session is published and returned. On
// failure nothing is mutated and the error propagates without retry.
func (m *Manager) Login(ctx context.Context, sid, username, password string) (*domain.Session, error) {
	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !resp.Role.Valid() {
		return nil, apperrors.NewInternalError(nil)
	}

	if err := m.store.SetToken(ctx, sid, resp.Token); err != nil {
		return nil, err
	}
	if err := m.store.SetRole(ctx, sid, resp.Role); err != nil {
		return nil, err
	}
	if err := m.store.SetUsername(ctx, sid, username); err != nil {
		return nil, err
	}

	sess := &domain.Session{Username: username, Role: resp.Role, Token: resp.Token}

	m.mu.Lock()
	m.sessions[sid] = sess
	m.mu.Unlock()

	m.stream.Publish(sid, sess)
	m.logger.Info("login", zap.String("username", username), zap.String("role", string(resp.Role)))
	return sess, nil
}

// evict drops a cached session whose store record disappeared and
// publishes the null session so observers learn about the expiry.
func (m *Manager) evict(sid string) {
	m.mu.Lock()
	_, existed := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()

	if existed || m.stream.Current(sid) != nil {
		m.stream.Publish(sid, nil)
	}
}

// Logout clears the token store and publishes a null session. Safe to call
// when already logged out.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}

	m.mu.Lock()
	_, existed := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()

	if err := m.store.Clear(ctx, sid); err != nil {
		return err
	}
	if existed || m.stream.Current(sid) != nil {
		m.stream.Publish(sid, nil)
	}
	return nil
}

// Invalidate is the forced-logout path taken when the server signals an
// expired token. It satisfies the transport's Invalidator contract and is
// idempotent under concurrent invalidations.
func (m *Manager) Invalidate(ctx context.Context, sid string) {
	if err := m.Logout(ctx, sid); err != nil {
		m.logger.Warn("session invalidation failed", zap.Error(err))
	}
}

// RegisterCompany forwards a registration request. Registration never
// auto-logs-in, so session state is untouched.
func (m *Manager) RegisterCompany(ctx context.Context, req dto.RegisterCompanyRequest) (*dto.RegisterCompanyResponse, error) {
	return m.api.RegisterCompany(ctx, req)
}

// Role returns the current session's role, or "" when unauthenticated.
func (m *Manager) Role(ctx context.Context, sid string) (domain.Role, error) {
	sess, err := m.Current(ctx, sid)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.Role, nil
}

// HasRole reports whether the current session carries the given role.
func (m *Manager) HasRole(ctx context.Context, sid string, role domain.Role) bool {
	sess, err := m.Current(ctx, sid)
	if err != nil {
		return false
	}
	return sess.HasRole(role)
}

// CompanyID extracts the advisory companyId claim from the stored token.
func (m *Manager) CompanyID(ctx context.Context, sid string) (int64, bool) {
	bearer, err := m.store.GetToken(ctx, sid)
	if err != nil || bearer == "" {
		return 0, false
	}
	return token.CompanyID(bearer)
}
