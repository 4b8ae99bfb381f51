package queue

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process queue with at-least-once semantics: Nack puts the
// message back at the head with its attempt count bumped. Used by tests and
// single-binary demo wiring.
type Memory struct {
	mu      sync.Mutex
	pending []Message
	ins     int
	wake    chan struct{}
}

func NewMemory() *Memory {
	return &Memory{wake: make(chan struct{}, 1)}
}

func (q *Memory) Publish(ctx context.Context, m Message) error {
	q.mu.Lock()
	if m.ID == "" {
		q.ins++
		m.ID = fmt.Sprintf("mem-%d", q.ins)
	}
	if m.Attempts == 0 {
		m.Attempts = 1
	}
	q.pending = append(q.pending, m)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Memory) Receive(ctx context.Context) (Message, error) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			m := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return m, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *Memory) Ack(ctx context.Context, m Message) error { return nil }

func (q *Memory) Nack(ctx context.Context, m Message) error {
	m.Attempts++
	q.mu.Lock()
	q.pending = append([]Message{m}, q.pending...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len reports how many messages are awaiting delivery.
func (q *Memory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
