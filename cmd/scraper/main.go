package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/ayamekni/AfriOffres/internal/config"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
	"github.com/ayamekni/AfriOffres/internal/scraper"
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

	if cfg.DDAgentHost != "" {
		tracer.Start(
			tracer.WithAgentAddr(cfg.DDAgentHost),
			tracer.WithService("afrioffres-scraper"),
			tracer.WithEnv(cfg.Environment),
		)
		defer tracer.Stop()
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
	if err := store.EnsureIndexes(initCtx); err != nil {
		lg.Fatal("mongo indexes", zap.Error(err))
	}

	opts := []scraper.Option{scraper.WithLogger(lg)}
	if cfg.Scraper.Live {
		opts = append(opts, scraper.WithLive(scraper.NewFetcher(lg)))
	}
	m := scraper.NewManager(store, lg,
		scraper.NewNigeria(opts...),
		scraper.NewKenya(opts...),
		scraper.NewGhana(opts...),
	)
	m.Exchange = cfg.Rabbit.Exchange

	if cfg.Rabbit.URL != "" {
		pub, err := queue.NewRabbit(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			lg.Warn("rabbit unavailable, scrape events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			m.Events = pub
		}
	}
	if cfg.RedisAddr != "" {
		rdb := repo.NewRedis(cfg.RedisAddr)
		if err := rdb.Ping(initCtx); err != nil {
			lg.Warn("redis unavailable, jobs run without a lock", zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			m.Locker = rdb
		}
	}

	metrics.MustRegisterScraper()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(ctx, cfg.MetricsAddr, lg); err != nil {
				lg.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	lg.Info("scraper up", zap.Strings("sources", m.Sources()), zap.Bool("live", cfg.Scraper.Live))
	if err := m.Start(ctx, cfg.Scraper.SampleDataPath, cfg.Scraper.RunOnStart); err != nil {
		lg.Fatal("scheduler", zap.Error(err))
	}
}
