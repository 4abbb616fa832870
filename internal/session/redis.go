package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ytget/pixel-bot/internal/model"
)

// RedisStore keeps selections in Redis using SET ... EX
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING
func NewRedisStore(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get returns the chat's selection or ErrNotFound
func (s *RedisStore) Get(ctx context.Context, chatID int64) (*model.Selection, error) {
	val, err := s.client.Get(ctx, Key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", Key(chatID), err)
	}
	return decode(val)
}

// Put stores the selection with a fresh TTL
func (s *RedisStore) Put(ctx context.Context, chatID int64, sel *model.Selection) error {
	data, err := encode(sel)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", Key(chatID), err)
	}
	return nil
}

// Delete removes the chat's selection
func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, Key(chatID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", Key(chatID), err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
