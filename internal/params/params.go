// Package params is the parameter/secret lookup used for the partner
// credential. Lookups fail soft: a missing entry yields the NoData sentinel,
// which callers must treat as an error, never as a valid credential.
package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/endless-aisle/order-routing/internal/redisx"
)

// NoData is returned when the path holds nothing.
const NoData = "No Data"

type Source interface {
	Get(ctx context.Context, path string) (string, error)
}

type RedisSource struct {
	Client *redis.Client
}

func (s *RedisSource) Get(ctx context.Context, path string) (string, error) {
	key := fmt.Sprintf(redisx.KeyParam, path)
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return NoData, nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Set exists for bootstrap wiring only.
func (s *RedisSource) Set(ctx context.Context, path, value string) error {
	return s.Client.Set(ctx, fmt.Sprintf(redisx.KeyParam, path), value, 0).Err()
}
