package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/recovery-portal/internal/domain"
)

const redisKeyPrefix = "portal:session:"

// RedisStore keeps each session record in a redis hash so Clear is a
// single DEL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a redis-backed store. Records expire after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return redisKeyPrefix + storageKey(sid)
}

func (s *RedisStore) setField(ctx context.Context, sid, field, value string) error {
	key := s.key(sid)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) getField(ctx context.Context, sid, field string) (string, error) {
	value, err := s.client.HGet(ctx, s.key(sid), field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) SetToken(ctx context.Context, sid, token string) error {
	return s.setField(ctx, sid, fieldToken, token)
}

func (s *RedisStore) GetToken(ctx context.Context, sid string) (string, error) {
	return s.getField(ctx, sid, fieldToken)
}

func (s *RedisStore) HasToken(ctx context.Context, sid string) (bool, error) {
	token, err := s.GetToken(ctx, sid)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (s *RedisStore) SetRole(ctx context.Context, sid string, role domain.Role) error {
	return s.setField(ctx, sid, fieldRole, string(role))
}

func (s *RedisStore) GetRole(ctx context.Context, sid string) (domain.Role, error) {
	value, err := s.getField(ctx, sid, fieldRole)
	if err != nil {
		return "", err
	}
	role, _ := domain.ParseRole(value)
	return role, nil
}

func (s *RedisStore) SetUsername(ctx context.Context, sid, username string) error {
	return s.setField(ctx, sid, fieldUsername, username)
}

func (s *RedisStore) GetUsername(ctx context.Context, sid string) (string, error) {
	return s.getField(ctx, sid, fieldUsername)
}

// Clear deletes the whole hash.
func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.client.Del(ctx, s.key(sid)).Err()
}
