// Package redis implements repository.KeyValueStore on a Redis server, so a
// session can be shared by several machines (e.g. a CI runner importing
// projects with an admin login made on a laptop).
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/portfolio/internal/repository"
)

var _ repository.KeyValueStore = (*Store)(nil)

// DefaultPrefix namespaces every key this client writes.
const DefaultPrefix = "portfolio:"

type Store struct {
	client *redis.Client
	prefix string
}

// NewStore wraps an existing client. An empty prefix means DefaultPrefix.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Open parses a redis:// URL, connects and pings.
func Open(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parsing url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewStore(client, ""), nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value without expiry; the session's own expiry is tracked in
// repository.KeyAuthExpiresAt.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: writing %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis: deleting %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
