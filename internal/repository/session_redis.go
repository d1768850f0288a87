package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

// RedisSessionStore keeps sessions as JSON values whose Redis TTL ends at
// the session's fixed expiry. SETNX makes creation atomic.
type RedisSessionStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisSessionStore(rdb *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "cg:session"
	}
	return &RedisSessionStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisSessionStore) key(id string) string { return s.prefix + ":" + id }

type redisSession struct {
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisSessionStore) Create(ctx context.Context, sess model.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	body, err := json.Marshal(redisSession{UserID: sess.UserID, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, s.key(sess.ID), body, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrConflict
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (model.Session, error) {
	body, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, apperr.ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	var rs redisSession
	if err := json.Unmarshal(body, &rs); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return model.Session{ID: id, UserID: rs.UserID, CreatedAt: rs.CreatedAt, ExpiresAt: rs.ExpiresAt}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}
