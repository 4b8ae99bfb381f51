package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrInvalidArgument = errors.New("no fields to update")
)

// Backend is the durable half of the order store. Implementations must give
// read-your-writes per order id: a Get issued after Put/Update returned
// observes that write.
type Backend interface {
	Put(ctx context.Context, o Order) error
	// Update sets each field verbatim and returns the resulting full record,
	// or ErrNotFound. Callers guarantee fields is non-empty.
	Update(ctx context.Context, orderID string, fields []Field) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
}

type ChangeHandler func(ev ChangeEvent)

// Store wraps a Backend and fans a ChangeEvent out to subscribed handlers
// after every successful write. Handlers run after the write has committed;
// a handler panic is logged and never surfaces to the writer.
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.RWMutex
	handlers []ChangeHandler
}

func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

func (s *Store) OnChange(h ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Put is an unconditional upsert by order id.
func (s *Store) Put(ctx context.Context, o Order) error {
	if err := s.backend.Put(ctx, o); err != nil {
		return fmt.Errorf("backend.Put: %w", err)
	}
	s.notify(o)
	return nil
}

// Update sets the named fields verbatim and returns the name->value map of
// what changed. An empty field list fails with ErrInvalidArgument for every
// order id, existing or not, before storage is touched.
func (s *Store) Update(ctx context.Context, orderID string, fields []Field) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, ErrInvalidArgument
	}
	o, err := s.backend.Update(ctx, orderID, fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backend.Update: %w", err)
	}
	s.notify(o)

	updated := lo.Associate(fields, func(f Field) (string, any) {
		return f.Name, f.Value
	})
	return updated, nil
}

func (s *Store) Get(ctx context.Context, orderID string) (Order, error) {
	o, err := s.backend.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("backend.Get: %w", err)
	}
	return o, nil
}

func (s *Store) notify(o Order) {
	s.mu.RLock()
	handlers := make([]ChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	ev := ChangeEvent{NewImage: o}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("change handler panicked",
						zap.String("order_id", o.OrderID), zap.Any("panic", r))
				}
			}()
			h(ev)
		}()
	}
}
