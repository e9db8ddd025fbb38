package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/coyote/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResourceStore implements ports.ResourceStore using Redis
type ResourceStore struct {
	client redis.UniversalClient
	logger *zap.Logger
	ttl    time.Duration
}

// NewResourceStore creates a new Redis resource store. A zero ttl keeps
// resources until they are deleted.
func NewResourceStore(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *ResourceStore {
	return &ResourceStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Put saves a resource with the configured TTL
func (s *ResourceStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, getResourceKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}

	s.logger.Debug("resource saved",
		zap.String("key", key),
		zap.Int("size", len(value)))

	return nil
}

// PutIfAbsent saves a resource only when the key is not taken
func (s *ResourceStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	ok, err := s.client.SetNX(ctx, getResourceKey(key), value, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	if !ok {
		return domain.NewResourceAlreadyExists(key)
	}

	s.logger.Debug("resource created",
		zap.String("key", key),
		zap.Int("size", len(value)))

	return nil
}

// Get retrieves a resource
func (s *ResourceStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, getResourceKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewResourceDoesNotExist(key)
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return data, nil
}

// Delete removes a resource
func (s *ResourceStore) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, getResourceKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if n == 0 {
		return domain.NewResourceDoesNotExist(key)
	}

	s.logger.Debug("resource deleted",
		zap.String("key", key))

	return nil
}

// getResourceKey returns the Redis key for a resource
func getResourceKey(key string) string {
	return fmt.Sprintf("coyote:resource:%s", key)
}
