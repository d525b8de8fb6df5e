package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/cafe-storefront/internal/domain/cart"
)

// RedisCartStore persists carts in Redis, one key per user holding the full
// serialized cart.
type RedisCartStore struct {
	rdb *redis.Client
}

// NewRedisCartStore connects to Redis, retrying with exponential backoff so
// the service can start before the cache during orchestration.
func NewRedisCartStore(addr string, db int) (*RedisCartStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			return &RedisCartStore{rdb: rdb}, nil
		}
		if i == maxRetries-1 {
			return nil, fmt.Errorf("failed to connect to redis after %d retries: %w", maxRetries, err)
		}

		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		logrus.WithField("backoff", backoff).Infof("redis not ready, retry %d/%d", i+1, maxRetries)
		time.Sleep(backoff)
	}
	return &RedisCartStore{rdb: rdb}, nil
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *RedisCartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	data, err := s.rdb.Get(ctx, cartKey(userID)).Bytes()
	if err == redis.Nil {
		return cart.New(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCart(userID, data), nil
}

func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := encodeCart(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cartKey(c.UserID), data, 0).Err()
}

func (s *RedisCartStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}

func (s *RedisCartStore) Close() error {
	return s.rdb.Close()
}
