// Package partners is the read-only lookup of partner reference data:
// webhook base URL, display name, category. Partners are created once at
// bootstrap and never mutated by the pipeline.
package partners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/redisx"
)

// ErrNotFound marks a terminal input error: the partner id does not exist.
// Callers must not retry it. Any other error is a transport fault and is
// retryable.
var ErrNotFound = errors.New("partner not found")

type Registry interface {
	Get(ctx context.Context, partnerID string) (orders.PartnerInfo, error)
}

type RedisRegistry struct {
	Client *redis.Client
}

func (r *RedisRegistry) Get(ctx context.Context, partnerID string) (orders.PartnerInfo, error) {
	key := fmt.Sprintf(redisx.KeyPartner, partnerID)
	raw, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return orders.PartnerInfo{}, ErrNotFound
	}
	if err != nil {
		return orders.PartnerInfo{}, fmt.Errorf("get %s: %w", key, err)
	}
	var p orders.PartnerInfo
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return orders.PartnerInfo{}, fmt.Errorf("decode partner %s: %w", partnerID, err)
	}
	return p, nil
}

// Seed writes partner records, overwriting existing ones. Called from the
// bootstrap path only.
func (r *RedisRegistry) Seed(ctx context.Context, infos []orders.PartnerInfo) error {
	for _, p := range infos {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode partner %s: %w", p.PartnerID, err)
		}
		key := fmt.Sprintf(redisx.KeyPartner, p.PartnerID)
		if err := r.Client.Set(ctx, key, raw, 0).Err(); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	return nil
}

// Defaults is the demo partner set. Webhook is filled in from configuration
// at seed time.
func Defaults(webhook string) []orders.PartnerInfo {
	return []orders.PartnerInfo{
		{PartnerID: "1", Name: orders.Partner1, Category: orders.CategoryFootware, Webhook: webhook, Image: "test.jpg"},
		{PartnerID: "2", Name: orders.Partner2, Category: orders.CategoryApparel, Webhook: webhook, Image: "test.jpg"},
		{PartnerID: "3", Name: orders.Partner3, Category: orders.CategoryEyewear, Webhook: webhook, Image: "test.jpg"},
	}
}
