package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/config"
	kafkax "github.com/endless-aisle/order-routing/internal/kafka"
	"github.com/endless-aisle/order-routing/internal/notifier"
	"github.com/endless-aisle/order-routing/internal/orders"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sender notifier.Sender
	if cfg.SMTPAddr != "" {
		sender = &notifier.SMTPSender{Addr: cfg.SMTPAddr, From: cfg.EmailFrom}
	} else {
		sender = &notifier.LogSender{Logger: logger}
	}

	svc := &notifier.Service{Sender: sender, Logger: logger}

	// The notifier never nacks, but the consumer contract wants a retry
	// producer; it stays idle here.
	retry := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderChanges, 256, logger)
	retry.Start(context.Background())

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderChanges, retry)
	defer consumer.Close()

	go func() {
		logger.Info("fulfillment notifier started",
			zap.String("group", cfg.NotifierGroup), zap.String("topic", orders.TopicOrderChanges))
		if err := svc.Run(ctx, consumer); err != nil {
			logger.Error("notifier exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down notifier...")
	cancel()
	retry.Close()
	retry.WaitClosed()
}
