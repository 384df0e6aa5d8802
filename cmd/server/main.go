package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/ayamekni/AfriOffres/docs"
	"github.com/ayamekni/AfriOffres/internal/config"
	api "github.com/ayamekni/AfriOffres/internal/http"
	"github.com/ayamekni/AfriOffres/internal/log"
	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/oauth"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
)

// @title AfriOffres API
// @version 1.0.0
// @description African public tender aggregation: tenders, accounts and recommendations.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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
			tracer.WithService("afrioffres-api"),
			tracer.WithEnv(cfg.Environment),
		)
		defer tracer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.DB)
	if err != nil {
		lg.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		lg.Fatal("mongo indexes", zap.Error(err))
	}

	h := api.NewHandler(store, cfg.Auth.JWTSecret, lg)
	h.TokenTTL = cfg.Auth.TokenTTL
	h.RateLimitPerMin = cfg.Auth.RateLimitPerMin
	h.Exchange = cfg.Rabbit.Exchange

	if cfg.RedisAddr != "" {
		rdb := repo.NewRedis(cfg.RedisAddr)
		if err := rdb.Ping(ctx); err != nil {
			lg.Warn("redis unavailable, rate limiting per process", zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			h.Limiter = rdb
		}
	}

	if cfg.Rabbit.URL != "" {
		pub, err := queue.NewRabbit(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			lg.Warn("rabbit unavailable, events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			h.Events = pub
		}
	}

	if cfg.Google.ClientID != "" {
		h.Google = oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, cfg.Google.StateSecret)
	}

	metrics.MustRegister()
	docs.SwaggerInfo.BasePath = "/"

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, api.RouterConfig{CORSOrigins: cfg.CORSOrigins, Metrics: true}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()
	lg.Info("api listening", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		lg.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		lg.Error("server error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}
