package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/queue"
)

const (
	// DefaultMaxAttempts bounds poison-message loops: one retry, then the
	// message moves to the dead-letter channel.
	DefaultMaxAttempts = 2

	// DefaultTimeout is the hard per-invocation deadline. An invocation that
	// exceeds it is abandoned and the message redelivered.
	DefaultTimeout = 15 * time.Second
)

// Runner drives a consumer one message at a time: receive, handle under a
// deadline, then ack, nack, or dead-letter. A message is acked if and only
// if it was handled successfully or routed to the dead-letter channel.
type Runner struct {
	Consumer    queue.Consumer
	DeadLetters queue.Publisher
	Handle      func(ctx context.Context, m queue.Message) error
	Logger      *zap.Logger

	MaxAttempts int
	Timeout     time.Duration
}

func (r *Runner) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func (r *Runner) Run(ctx context.Context) error {
	for {
		m, err := r.Consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		r.process(ctx, m)
	}
}

func (r *Runner) process(parent context.Context, m queue.Message) {
	ctx, cancel := context.WithTimeout(parent, r.timeout())
	defer cancel()

	err := r.Handle(ctx, m)
	if err == nil {
		if ackErr := r.Consumer.Ack(parent, m); ackErr != nil {
			r.Logger.Error("ack failed", zap.String("message_id", m.ID), zap.Error(ackErr))
		}
		return
	}

	if m.Attempts >= r.maxAttempts() {
		r.deadLetter(parent, m, err)
		return
	}

	r.Logger.Warn("processing failed, message stays for redelivery",
		zap.String("message_id", m.ID), zap.Int("attempt", m.Attempts), zap.Error(err))
	if nackErr := r.Consumer.Nack(parent, m); nackErr != nil {
		r.Logger.Error("nack failed", zap.String("message_id", m.ID), zap.Error(nackErr))
	}
}

// deadLetter moves the message to the dead-letter channel. The original is
// acked only after the dead-letter publish succeeded, so the message is
// never lost in between.
func (r *Runner) deadLetter(ctx context.Context, m queue.Message, cause error) {
	dlm := queue.Message{ID: m.ID, Key: m.Key, Body: m.Body, Attempts: m.Attempts}
	if err := r.DeadLetters.Publish(ctx, dlm); err != nil {
		r.Logger.Error("dead-letter publish failed", zap.String("message_id", m.ID), zap.Error(err))
		if nackErr := r.Consumer.Nack(ctx, m); nackErr != nil {
			r.Logger.Error("nack failed", zap.String("message_id", m.ID), zap.Error(nackErr))
		}
		return
	}
	r.Logger.Error("message dead-lettered",
		zap.String("message_id", m.ID), zap.Int("attempts", m.Attempts), zap.Error(cause))
	if err := r.Consumer.Ack(ctx, m); err != nil {
		r.Logger.Error("ack after dead-letter failed", zap.String("message_id", m.ID), zap.Error(err))
	}
}
