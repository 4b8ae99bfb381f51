// Package queue defines the delivery contract between the API boundary and
// the consumers, independent of any broker envelope. Delivery is
// at-least-once: a message that is never acked becomes eligible for
// redelivery.
package queue

import "context"

type Message struct {
	// ID identifies one delivery attempt's payload; it is carried onto the
	// order record for traceability.
	ID string
	// Key selects the partition; ordering across different keys is not
	// guaranteed.
	Key  []byte
	Body []byte
	// Attempts counts deliveries of this message, starting at 1.
	Attempts int

	// receipt is the broker-specific ack handle.
	receipt any
}

// Receipt exposes the broker handle for transport implementations.
func (m Message) Receipt() any { return m.receipt }

// WithReceipt is used by transports when constructing inbound messages.
func (m Message) WithReceipt(r any) Message {
	m.receipt = r
	return m
}

type Publisher interface {
	Publish(ctx context.Context, m Message) error
}

type Consumer interface {
	// Receive blocks until a message is available or ctx is done.
	Receive(ctx context.Context) (Message, error)
	// Ack marks the message consumed; it is never redelivered afterwards.
	Ack(ctx context.Context, m Message) error
	// Nack releases the message for redelivery.
	Nack(ctx context.Context, m Message) error
}
