package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mortgage:session:"

// RedisStore keeps sessions in Redis; expiry is handled by Redis itself
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr
func NewRedisStore(addr, password string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})}
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, id string, cfg models.LoanConfiguration, ttl time.Duration) error {
	blob, err := encode(cfg)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, blob, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (models.LoanConfiguration, error) {
	blob, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.LoanConfiguration{}, ErrNotFound
	}
	if err != nil {
		return models.LoanConfiguration{}, fmt.Errorf("failed to load session: %w", err)
	}
	return decode(blob)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
