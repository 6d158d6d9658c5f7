package cdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client *backend.Client
	prefix string
}

// NewRedis creates a store that keeps resources in Redis under the configured prefix.
func NewRedis(client *backend.Client, opts ...Option) *Store {
	s := newStore(opts)
	s.storage = &redisStorage{client: client, prefix: s.prefix}

	return s
}

func (r *redisStorage) key(fid string) string {
	return r.prefix + fid
}

func (r *redisStorage) save(ctx context.Context, fid string, rec record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}

	err = r.client.Set(ctx, r.key(fid), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

func (r *redisStorage) load(ctx context.Context, fid string) (*record, error) {
	val, err := r.client.Get(ctx, r.key(fid)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load from redis: %w", err)
	}

	var rec record

	err = json.Unmarshal(val, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal resource: %w", err)
	}

	return &rec, nil
}
