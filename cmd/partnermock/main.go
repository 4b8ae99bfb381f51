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
	"github.com/endless-aisle/order-routing/internal/partnermock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	router := httpx.NewRouter(logger)
	h := &partnermock.Handler{Token: cfg.PartnerToken, Logger: logger}
	h.Register(router)

	srv := &http.Server{Addr: cfg.MockAddr, Handler: router}

	go func() {
		logger.Info("partner mock listening", zap.String("addr", cfg.MockAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down partner mock...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
