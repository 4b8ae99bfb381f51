// Package worker consumes order requests one message at a time, performs the
// partner fulfillment call and persists the resulting order record. The
// record is always written once a partner verdict exists; its orderStatus is
// what reflects success or failure, not the presence of the record.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/fulfillment"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/params"
	"github.com/endless-aisle/order-routing/internal/partners"
	"github.com/endless-aisle/order-routing/internal/queue"
	"github.com/endless-aisle/order-routing/internal/redisx"
)

// ErrConfiguration marks missing required wiring, such as an empty token
// path or a credential store holding no data. It is not fixable by retrying.
var ErrConfiguration = errors.New("worker misconfigured")

type Fulfiller interface {
	PlaceOrder(ctx context.Context, webhook, token string, item orders.RequestedItem) (fulfillment.Result, error)
}

type Service struct {
	Registry  partners.Registry
	Params    params.Source
	Fulfiller Fulfiller
	Store     *orders.Store
	TokenPath string
	Logger    *zap.Logger

	// Dedup guards redelivered messages that were already persisted.
	// Optional; nil disables the guard.
	Dedup *redis.Client
}

// HandleMessage processes exactly one dequeued order request. A nil return
// means the order record is durably written and the message may be acked;
// any error leaves the message unacked for redelivery.
func (s *Service) HandleMessage(ctx context.Context, m queue.Message) error {
	var req orders.OrderRequest
	if err := json.Unmarshal(m.Body, &req); err != nil {
		return fmt.Errorf("decode order request: %w", err)
	}

	if s.seen(ctx, m.ID) {
		s.Logger.Info("duplicate delivery ignored", zap.String("message_id", m.ID))
		return nil
	}

	item := req.RequestedItem

	partner, err := s.Registry.Get(ctx, item.PartnerID)
	if err != nil {
		return fmt.Errorf("resolve partner %q: %w", item.PartnerID, err)
	}

	if s.TokenPath == "" {
		return fmt.Errorf("%w: token path not configured", ErrConfiguration)
	}
	token, err := s.Params.Get(ctx, s.TokenPath)
	if err != nil {
		return fmt.Errorf("fetch credential: %w", err)
	}
	if token == params.NoData || strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: no credential at %s", ErrConfiguration, s.TokenPath)
	}

	res, err := s.Fulfiller.PlaceOrder(ctx, partner.Webhook, token, item)
	if err != nil {
		// transport fault: no verdict, no write, message stays for redelivery
		return fmt.Errorf("fulfillment call: %w", err)
	}

	order := s.buildOrder(req, res, m.ID)
	if err := s.Store.Put(ctx, order); err != nil {
		return fmt.Errorf("persist order %s: %w", order.OrderID, err)
	}

	s.markSeen(ctx, m.ID)
	s.Logger.Info("order persisted",
		zap.String("order_id", order.OrderID),
		zap.String("message_id", m.ID),
		zap.String("status", string(order.OrderStatus)))
	return nil
}

// buildOrder assembles the durable record. No success id is ever fabricated:
// a partner rejection is recorded honestly as a Failed order under a
// deterministic fallback key so the outcome stays pollable.
func (s *Service) buildOrder(req orders.OrderRequest, res fulfillment.Result, messageID string) orders.Order {
	item := req.RequestedItem

	orderID := res.OrderID
	status := orders.StatusCompleted
	if !res.Accepted {
		orderID = "failed-" + messageID
		status = orders.StatusFailed
	}

	return orders.Order{
		OrderID:   orderID,
		PartnerID: item.PartnerID,
		Product: orders.Product{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Size:     item.Size,
		},
		OrderDate:         time.Now().UnixMilli(),
		Price:             item.Price,
		Subtotal:          orders.Subtotal(item.Price),
		SalesTax:          orders.SalesTaxLabel(),
		OrderStatus:       status,
		StatusDescription: res.Message,
		Partner:           item.Partner,
		Subscribers:       []orders.Customer{req.Customer},
		MessageID:         messageID,
	}
}

func (s *Service) seen(ctx context.Context, messageID string) bool {
	if s.Dedup == nil || messageID == "" {
		return false
	}
	key := fmt.Sprintf(redisx.KeyDedup, "worker", messageID)
	ok, err := redisx.Exists(ctx, s.Dedup, key)
	if err != nil {
		return false
	}
	return ok
}

func (s *Service) markSeen(ctx context.Context, messageID string) {
	if s.Dedup == nil || messageID == "" {
		return
	}
	key := fmt.Sprintf(redisx.KeyDedup, "worker", messageID)
	if err := s.Dedup.Set(ctx, key, "1", redisx.TTLDedup).Err(); err != nil {
		s.Logger.Warn("dedup mark failed", zap.String("message_id", messageID), zap.Error(err))
	}
}
