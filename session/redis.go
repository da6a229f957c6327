package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps records in Redis under "<prefix>:<id>".
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type redisRecord struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
}

// NewRedisStore creates a RedisStore. A positive ttl is set on every record so Redis
// evicts it on its own; zero keeps records until deleted.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "as"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(redisRecord{
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var stored redisRecord
	if err := json.Unmarshal(data, &stored); err != nil || stored.UserID == "" {
		// A record we cannot read cannot name a user.
		return nil, ErrNotFound
	}

	return &Record{
		ID:        id,
		UserID:    stored.UserID,
		CreatedAt: time.UnixMilli(stored.CreatedAt).UTC(),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

var _ Store = (*RedisStore)(nil)
