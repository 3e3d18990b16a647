package token

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// MemoryStore keeps session records in a mutex-guarded map. It is the
// default backend for single-instance deployments and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]record
	touched map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]record),
		touched: make(map[string]time.Time),
	}
}

func (s *MemoryStore) mutate(sid string, fn func(*record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storageKey(sid)
	rec := s.records[key]
	fn(&rec)
	s.records[key] = rec
	s.touched[key] = time.Now()
}

func (s *MemoryStore) SetToken(_ context.Context, sid, token string) error {
	s.mutate(sid, func(rec *record) { rec.Token = token })
	return nil
}

func (s *MemoryStore) GetToken(_ context.Context, sid string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[storageKey(sid)].Token, nil
}

func (s *MemoryStore) HasToken(ctx context.Context, sid string) (bool, error) {
	token, err := s.GetToken(ctx, sid)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (s *MemoryStore) SetRole(_ context.Context, sid string, role domain.Role) error {
	s.mutate(sid, func(rec *record) { rec.Role = string(role) })
	return nil
}

func (s *MemoryStore) GetRole(_ context.Context, sid string) (domain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, _ := domain.ParseRole(s.records[storageKey(sid)].Role)
	return role, nil
}

func (s *MemoryStore) SetUsername(_ context.Context, sid, username string) error {
	s.mutate(sid, func(rec *record) { rec.Username = username })
	return nil
}

func (s *MemoryStore) GetUsername(_ context.Context, sid string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[storageKey(sid)].Username, nil
}

// Clear removes all three fields in one map delete.
func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storageKey(sid)
	delete(s.records, key)
	delete(s.touched, key)
	return nil
}

// PurgeIdle evicts records whose last write is older than olderThan.
func (s *MemoryStore) PurgeIdle(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.records, key)
			delete(s.touched, key)
			purged++
		}
	}
	return purged, nil
}
