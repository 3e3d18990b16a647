package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

// PostgresStore keeps one row per session so Clear is a single DELETE.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the session table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS portal_sessions (
            sid_hash   TEXT PRIMARY KEY,
            auth_token TEXT NOT NULL DEFAULT '',
            user_role  TEXT NOT NULL DEFAULT '',
            username   TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

func (s *PostgresStore) setField(ctx context.Context, sid, column, value string) error {
	query := fmt.Sprintf(`
        INSERT INTO portal_sessions (sid_hash, %s)
        VALUES ($1, $2)
        ON CONFLICT (sid_hash)
        DO UPDATE SET %s = EXCLUDED.%s, updated_at = NOW()`, column, column, column)

	_, err := s.pool.Exec(ctx, query, storageKey(sid), value)
	return err
}

func (s *PostgresStore) getField(ctx context.Context, sid, column string) (string, error) {
	query := fmt.Sprintf(`SELECT %s FROM portal_sessions WHERE sid_hash = $1`, column)

	var value string
	err := s.pool.QueryRow(ctx, query, storageKey(sid)).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) SetToken(ctx context.Context, sid, token string) error {
	return s.setField(ctx, sid, fieldToken, token)
}

func (s *PostgresStore) GetToken(ctx context.Context, sid string) (string, error) {
	return s.getField(ctx, sid, fieldToken)
}

func (s *PostgresStore) HasToken(ctx context.Context, sid string) (bool, error) {
	token, err := s.GetToken(ctx, sid)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (s *PostgresStore) SetRole(ctx context.Context, sid string, role domain.Role) error {
	return s.setField(ctx, sid, fieldRole, string(role))
}

func (s *PostgresStore) GetRole(ctx context.Context, sid string) (domain.Role, error) {
	value, err := s.getField(ctx, sid, fieldRole)
	if err != nil {
		return "", err
	}
	role, _ := domain.ParseRole(value)
	return role, nil
}

func (s *PostgresStore) SetUsername(ctx context.Context, sid, username string) error {
	return s.setField(ctx, sid, fieldUsername, username)
}

func (s *PostgresStore) GetUsername(ctx context.Context, sid string) (string, error) {
	return s.getField(ctx, sid, fieldUsername)
}

// Clear deletes the session row.
func (s *PostgresStore) Clear(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM portal_sessions WHERE sid_hash = $1`, storageKey(sid))
	return err
}

// PurgeIdle deletes rows whose last write is older than olderThan.
func (s *PostgresStore) PurgeIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM portal_sessions WHERE updated_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
