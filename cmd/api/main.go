package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/endless-aisle/order-routing/internal/config"
	"github.com/endless-aisle/order-routing/internal/httpx"
	kafkax "github.com/endless-aisle/order-routing/internal/kafka"
	"github.com/endless-aisle/order-routing/internal/orders"
	"github.com/endless-aisle/order-routing/internal/params"
	"github.com/endless-aisle/order-routing/internal/partners"
	"github.com/endless-aisle/order-routing/internal/postgres"
	"github.com/endless-aisle/order-routing/internal/redisx"
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

	// Redis: partner registry + parameter store bootstrap
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	registry := &partners.RedisRegistry{Client: rdb}
	if err := registry.Seed(ctx, partners.Defaults(cfg.PartnerWebhook)); err != nil {
		logger.Fatal("seed partners", zap.Error(err))
	}
	if cfg.PartnerToken != "" {
		src := &params.RedisSource{Client: rdb}
		if err := src.Set(ctx, cfg.TokenPath, cfg.PartnerToken); err != nil {
			logger.Fatal("seed credential", zap.Error(err))
		}
	}

	// Kafka: inbound order queue + change stream
	requests := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderRequests, 1024, logger)
	requests.Start(context.Background())
	changes := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderChanges, 1024, logger)
	changes.Start(context.Background())

	store := orders.NewStore(backend, logger)
	store.OnChange(kafkax.ChangePublisher(changes, cfg.ServiceName+"-api", logger))

	router := httpx.NewRouter(logger)
	oh := &httpx.OrdersHandler{
		Store:  store,
		Queue:  requests,
		Logger: logger,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	requests.Close()
	changes.Close()
	requests.WaitClosed()
	changes.WaitClosed()
}
