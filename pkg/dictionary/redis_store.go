package dictionary

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the Store backed by a Redis server.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Dial connects to addr and checks the server answers.
func Dial(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStore(client), nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

// Client exposes the underlying client for the importer.
func (s *RedisStore) Client() redis.UniversalClient { return s.client }

func (s *RedisStore) Close() error { return s.client.Close() }
