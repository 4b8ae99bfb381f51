package kafka

import (
	"context"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/queue"
)

// Producer writes to one topic through a buffered inbox so callers never
// block on the broker. Close flushes the remaining inbox before the writer
// shuts down.
type Producer struct {
	w       *kafkago.Writer
	logger  *zap.Logger
	inbox   chan kafkago.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int, logger *zap.Logger) *Producer {
	return &Producer{
		w: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
		},
		logger:  logger,
		inbox:   make(chan kafkago.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				close(p.inbox)
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closeCh)
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafkago.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Error("kafka write failed",
			zap.String("topic", p.w.Topic), zap.Error(err))
	}
}

// Publish enqueues the message into the inbox. It blocks only when the inbox
// is full, and then respects ctx.
func (p *Producer) Publish(ctx context.Context, m queue.Message) error {
	km := kafkago.Message{
		Key:   m.Key,
		Value: m.Body,
		Time:  time.Now(),
	}
	if m.Attempts > 0 {
		km.Headers = append(km.Headers, kafkago.Header{
			Key:   headerAttempts,
			Value: []byte(strconv.Itoa(m.Attempts)),
		})
	}
	select {
	case p.inbox <- km:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages; the flush goroutine drains the inbox.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the flush goroutine has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
