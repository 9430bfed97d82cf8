package storage

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// RedisStore keeps each blob in a Redis string under a namespaced key.
type RedisStore struct {
	client rueidis.Client
	prefix string
	close  func()
}

// NewRedisStore creates a RedisStore. Keys are stored as prefix + key.
// The store takes ownership of the client and closes it on Close.
func NewRedisStore(client rueidis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		close:  client.Close,
	}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %s from redis: %w", key, err)
	}

	return data, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	cmd := s.client.B().Set().Key(s.prefix + key).Value(rueidis.BinaryString(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save %s to redis: %w", key, err)
	}

	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	s.close()
	return nil
}
