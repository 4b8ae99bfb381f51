package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/config"
	"github.com/endless-aisle/order-routing/internal/fulfillment"
	kafkax "github.com/endless-aisle/order-routing/internal/kafka"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/params"
	"github.com/endless-aisle/order-routing/internal/partners"
	"github.com/endless-aisle/order-routing/internal/postgres"
	"github.com/endless-aisle/order-routing/internal/redisx"
	"github.com/endless-aisle/order-routing/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	backend := &orders.PostgresBackend{DB: db}
	if err := backend.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producers: redeliveries, dead letters, change stream
	retry := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderRequests, 1024, logger)
	retry.Start(context.Background())
	deadLetters := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderDeadLetters, 256, logger)
	deadLetters.Start(context.Background())
	changes := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderChanges, 1024, logger)
	changes.Start(context.Background())

	store := orders.NewStore(backend, logger)
	store.OnChange(kafkax.ChangePublisher(changes, cfg.ServiceName+"-worker", logger))

	svc := &worker.Service{
		Registry:  &partners.RedisRegistry{Client: rdb},
		Params:    &params.RedisSource{Client: rdb},
		Fulfiller: fulfillment.NewClient(),
		Store:     store,
		TokenPath: cfg.TokenPath,
		Logger:    logger,
		Dedup:     rdb,
	}

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, orders.TopicOrderRequests, retry)
	defer consumer.Close()

	runner := &worker.Runner{
		Consumer:    consumer,
		DeadLetters: deadLetters,
		Handle:      svc.HandleMessage,
		Logger:      logger,
	}

	go func() {
		logger.Info("order worker started",
			zap.String("group", cfg.WorkerGroup), zap.String("topic", orders.TopicOrderRequests))
		if err := runner.Run(ctx); err != nil {
			logger.Error("worker exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down worker...")
	cancel()
	retry.Close()
	deadLetters.Close()
	changes.Close()
	retry.WaitClosed()
	deadLetters.WaitClosed()
	changes.WaitClosed()
}
