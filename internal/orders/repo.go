package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores each order as a JSONB document keyed by order id.
// Partial updates are a single top-level merge statement, so concurrent
// field-disjoint updates are safe and last-write-wins applies per field.
type PostgresBackend struct {
	DB *pgxpool.Pool
}

func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			order_id   TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (b *PostgresBackend) Put(ctx context.Context, o Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	_, err = b.DB.Exec(ctx, `
		INSERT INTO orders(order_id, doc) VALUES ($1, $2)
		ON CONFLICT (order_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		o.OrderID, doc)
	return err
}

func (b *PostgresBackend) Update(ctx context.Context, orderID string, fields []Field) (Order, error) {
	patch := make(map[string]any, len(fields))
	for _, f := range fields {
		patch[f.Name] = f.Value
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return Order{}, fmt.Errorf("marshal patch: %w", err)
	}

	var doc []byte
	err = b.DB.QueryRow(ctx, `
		UPDATE orders SET doc = doc || $2, updated_at = now()
		WHERE order_id = $1
		RETURNING doc`, orderID, raw).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	var o Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return o, nil
}

func (b *PostgresBackend) Get(ctx context.Context, orderID string) (Order, error) {
	var doc []byte
	err := b.DB.QueryRow(ctx, `SELECT doc FROM orders WHERE order_id = $1`, orderID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	var o Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return o, nil
}
