// Package notifier turns order change events into best-effort emails. It
// runs after the write that triggered it has already committed, so nothing
// here may fail or re-trigger that write.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	kafkax "github.com/endless-aisle/order-routing/internal/kafka"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/queue"
)

// ErrMalformedRecord marks a change record missing one of the required
// fields. Malformed records are reported and dropped, never repaired or
// retried here.
var ErrMalformedRecord = errors.New("change record missing required fields")

type Service struct {
	Sender Sender
	Logger *zap.Logger
}

// HandleChange extracts order id, status description, partner and the first
// subscriber's email from the new image and sends the notification. Email
// transport failure is swallowed: notification is best-effort.
func (s *Service) HandleChange(ctx context.Context, ev orders.ChangeEvent) error {
	o := ev.NewImage

	var email string
	if len(o.Subscribers) > 0 {
		email = o.Subscribers[0].Email
	}
	if o.OrderID == "" || o.StatusDescription == "" || o.Partner == "" || email == "" {
		return fmt.Errorf("%w: orderId=%q partner=%q email=%q", ErrMalformedRecord,
			o.OrderID, o.Partner, email)
	}

	subject := fmt.Sprintf("%s order %s status updated", o.Partner, o.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour customer with the email %s has placed an order with order id %s.\n\n"+
			"The status of the order has been updated to %s.\n\n"+
			"Please connect with the customer for further processing.\n\nThanks,\nAnyCompany Team",
		o.Partner, email, o.OrderID, o.StatusDescription)

	if err := s.Sender.Send(ctx, email, subject, body); err != nil {
		s.Logger.Error("email send failed, dropping notification",
			zap.String("order_id", o.OrderID), zap.Error(err))
		return nil
	}
	s.Logger.Info("notification sent",
		zap.String("order_id", o.OrderID), zap.String("to", email))
	return nil
}

// HandleMessage adapts HandleChange to the queue contract for the deployed
// shape, where change events arrive wrapped in the event envelope.
func (s *Service) HandleMessage(ctx context.Context, m queue.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != orders.EventOrderChanged {
		return nil
	}
	ev, err := kafkax.UnwrapPayload[orders.ChangeEvent](env.Payload)
	if err != nil {
		return err
	}
	return s.HandleChange(ctx, ev)
}

// Run consumes change events. Every message is acked regardless of handler
// outcome: this path never retries, per the best-effort contract.
func (s *Service) Run(ctx context.Context, c queue.Consumer) error {
	for {
		m, err := c.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := s.HandleMessage(ctx, m); err != nil {
			s.Logger.Error("change event dropped", zap.String("message_id", m.ID), zap.Error(err))
		}
		if err := c.Ack(ctx, m); err != nil {
			s.Logger.Error("ack failed", zap.String("message_id", m.ID), zap.Error(err))
		}
	}
}
