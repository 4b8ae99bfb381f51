package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryBackend keeps orders in a map. Used by tests and by the demo wiring
// when no Postgres is configured.
type MemoryBackend struct {
	mu   sync.RWMutex
	byID map[string]Order
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{byID: make(map[string]Order)}
}

func (b *MemoryBackend) Put(ctx context.Context, o Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID[o.OrderID] = o
	return nil
}

func (b *MemoryBackend) Update(ctx context.Context, orderID string, fields []Field) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.byID[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	next, err := applyFields(o, fields)
	if err != nil {
		return Order{}, err
	}
	b.byID[orderID] = next
	return next, nil
}

func (b *MemoryBackend) Get(ctx context.Context, orderID string) (Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.byID[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// applyFields sets each named field verbatim on the order document. The
// record round-trips through its JSON form so field names match the wire
// shape, and a nested value replaces the whole embedded object.
func applyFields(o Order, fields []Field) (Order, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return Order{}, fmt.Errorf("marshal order: %w", err)
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	for _, f := range fields {
		doc[f.Name] = f.Value
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return Order{}, fmt.Errorf("marshal document: %w", err)
	}
	var next Order
	if err := json.Unmarshal(raw, &next); err != nil {
		return Order{}, fmt.Errorf("apply fields: %w", err)
	}
	return next, nil
}
