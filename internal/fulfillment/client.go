// Package fulfillment calls the partner's inventory webhook to place an
// order. The partner assigns the order id; this client only relays it.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/endless-aisle/order-routing/internal/orders"
)

const authHeader = "authorizationToken"

// Result is the partner's verdict. Accepted carries the partner-assigned
// order id; a rejection keeps the partner's message so it can be persisted
// as the order's status description. A transport failure is returned as an
// error instead, so callers can tell retryable faults from rejections.
type Result struct {
	Accepted bool
	OrderID  string
	Message  string
}

type Client struct {
	HTTP *http.Client
}

func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: 10 * time.Second}}
}

type ackBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	OrderID    string `json:"orderId"`
}

// PlaceOrder posts the requested item to webhook + "inventory" with the
// bearer credential in the authorizationToken header.
func (c *Client) PlaceOrder(ctx context.Context, webhook, token string, item orders.RequestedItem) (Result, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return Result{}, fmt.Errorf("marshal item: %w", err)
	}

	url := webhook + "inventory"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, strings.TrimSpace(token))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call partner %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read partner response: %w", err)
	}

	var ack ackBody
	// tolerate non-JSON rejection bodies; the message just stays empty
	_ = json.Unmarshal(raw, &ack)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || ack.OrderID == "" {
		msg := ack.Message
		if msg == "" {
			msg = fmt.Sprintf("Order did not place: %s", item.ItemID)
		}
		return Result{Accepted: false, Message: msg}, nil
	}
	return Result{Accepted: true, OrderID: ack.OrderID, Message: ack.Message}, nil
}
