package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of the redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore shares drafts between instances.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// ConnectRedis parses a redis:// URL and checks the server answers.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (s *RedisStore) Put(ctx context.Context, kind Kind, id string, draft any) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode %s draft: %w", kind, err)
	}
	if err := s.client.Set(ctx, draftKey(kind, id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store %s draft: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, kind Kind, id string, out any) error {
	data, err := s.client.Get(ctx, draftKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrDraftNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s draft: %w", kind, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s draft: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, kind Kind, id string) error {
	if err := s.client.Del(ctx, draftKey(kind, id)).Err(); err != nil {
		return fmt.Errorf("delete %s draft: %w", kind, err)
	}
	return nil
}
