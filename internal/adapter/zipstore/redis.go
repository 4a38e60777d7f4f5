package zipstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anyjiujitsu/openmat-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces ZIP keys in a shared Redis.
const DefaultRedisPrefix = "openmat:zip:"

// RedisStore shares resolved coordinates between service replicas. Entries
// never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, zip string) (domain.Geo, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+zip).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Geo{}, false, nil
	}
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("redis get zip %s: %w", zip, err)
	}
	var g domain.Geo
	if err := json.Unmarshal(data, &g); err != nil {
		return domain.Geo{}, false, fmt.Errorf("decode zip %s: %w", zip, err)
	}
	return g, true, nil
}

func (s *RedisStore) Set(ctx context.Context, zip string, g domain.Geo) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode zip %s: %w", zip, err)
	}
	if err := s.client.Set(ctx, s.prefix+zip, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set zip %s: %w", zip, err)
	}
	return nil
}
