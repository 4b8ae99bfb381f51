package kafka

import (
	"context"
	"fmt"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/endless-aisle/order-routing/internal/queue"
)

const headerAttempts = "x-attempts"

// Consumer pulls one message at a time from a consumer group with manual
// commits. Ack commits the offset. Nack republishes the message to the same
// topic with its attempt count bumped, then commits the original, so an
// unacked message is redelivered without blocking the partition.
type Consumer struct {
	r     *kafkago.Reader
	retry *Producer
}

func NewConsumer(brokers []string, group, topic string, retry *Producer) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return &Consumer{r: r, retry: retry}
}

func (c *Consumer) Receive(ctx context.Context) (queue.Message, error) {
	km, err := c.r.FetchMessage(ctx)
	if err != nil {
		return queue.Message{}, err
	}
	m := queue.Message{
		ID:       fmt.Sprintf("%s-%d-%d", km.Topic, km.Partition, km.Offset),
		Key:      km.Key,
		Body:     km.Value,
		Attempts: attemptsOf(km),
	}
	return m.WithReceipt(km), nil
}

func (c *Consumer) Ack(ctx context.Context, m queue.Message) error {
	km, ok := m.Receipt().(kafkago.Message)
	if !ok {
		return fmt.Errorf("message %s has no kafka receipt", m.ID)
	}
	return c.r.CommitMessages(ctx, km)
}

func (c *Consumer) Nack(ctx context.Context, m queue.Message) error {
	km, ok := m.Receipt().(kafkago.Message)
	if !ok {
		return fmt.Errorf("message %s has no kafka receipt", m.ID)
	}
	redelivery := queue.Message{
		Key:      m.Key,
		Body:     m.Body,
		Attempts: m.Attempts + 1,
	}
	if err := c.retry.Publish(ctx, redelivery); err != nil {
		return fmt.Errorf("republish for redelivery: %w", err)
	}
	return c.r.CommitMessages(ctx, km)
}

func (c *Consumer) Close() error { return c.r.Close() }

func attemptsOf(km kafkago.Message) int {
	for _, h := range km.Headers {
		if h.Key == headerAttempts {
			if n, err := strconv.Atoi(string(h.Value)); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}
