package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/telaila/companion/pkg/config"
)

const claimedValue = "1"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("✅ Connected to Redis at %s", cfg.GetRedisAddr())
	return rdb, nil
}

// RedisStore claims keys with SET NX so a webhook delivered twice, possibly
// to different instances, is processed once.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed claim store. Keys are namespaced by prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Claim marks key as taken for ttl. It reports false when already claimed.
func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, claimedValue, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// Release frees a claimed key
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}
