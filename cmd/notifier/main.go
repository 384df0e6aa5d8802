package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/config"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/mail"
	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/notify"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg, err := log.Init(cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Rabbit.URL == "" {
		lg.Fatal("RABBIT_URL is required for the notifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := repo.NewStore(initCtx, cfg.Mongo.URI, cfg.Mongo.DB)
	if err != nil {
		lg.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	cons, err := queue.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.Rabbit.Queue, cfg.Rabbit.BindKey, lg)
	if err != nil {
		lg.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	metrics.MustRegisterNotifier()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(ctx, cfg.MetricsAddr, lg); err != nil {
				lg.Error("metrics listener", zap.Error(err))
			}
		}()
	}
	n := notify.New(store, &mail.LogSender{Log: lg}, lg)

	lg.Info("notifier up",
		zap.String("exchange", cfg.Rabbit.Exchange), zap.String("queue", cfg.Rabbit.Queue),
		zap.String("key", cfg.Rabbit.BindKey), zap.Int("workers", cfg.Rabbit.Concurrency))

	if err := cons.Consume(ctx, cfg.Rabbit.Concurrency, n.Handle); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("consumer stopped", zap.Error(err))
	}
	lg.Info("notifier stopped")
}
