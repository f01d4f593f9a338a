package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/config"
	"github.com/finpilot/loanflow/backend/internal/handler"
	"github.com/finpilot/loanflow/backend/internal/logger"
	"github.com/finpilot/loanflow/backend/internal/metrics"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	documentservice "github.com/finpilot/loanflow/backend/internal/service/document"
	"github.com/finpilot/loanflow/backend/internal/service/flow"
	"github.com/finpilot/loanflow/backend/internal/service/identity"
	"github.com/finpilot/loanflow/backend/internal/service/phrasing"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/internal/service/underwriting"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; deployments use the system env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	catalog := loan.NewMemoryCatalog(loan.Seed())
	store := buildStore(ctx, cfg.Session, log)

	registry := prometheus.NewRegistry()
	coreMetrics := metrics.New(registry)

	var phraser orchestrator.Phraser
	if cfg.AI.Enabled() {
		svc, err := phrasing.NewService(ctx, cfg.AI)
		if err != nil {
			log.Warn("phrasing model unavailable, replies stay canned", zap.Error(err))
		} else {
			phraser = svc
			log.Info("phrasing model initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		log.Info("phrasing model not configured, replies stay canned")
	}

	orch := orchestrator.New(orchestrator.Deps{
		Store:         store,
		Machine:       flow.NewMachine(catalog),
		Catalog:       catalog,
		Identity:      identity.NewService(identity.NewStubBureau(identity.SeedRecords()), log),
		Engine:        underwriting.NewEngine(),
		Phraser:       phraser,
		PhraseTimeout: cfg.AI.Timeout,
		Metrics:       coreMetrics,
		Log:           log,
	})

	docs := documentservice.NewService(nil)
	router := handler.NewRouter(orch, catalog, docs, registry, log)

	startServer(ctx, cfg.Server, router, log)
}

func buildStore(ctx context.Context, cfg config.SessionConfig, log *zap.Logger) session.Store {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, falling back to in-memory sessions",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			log.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
			return session.NewRedisStore(client, cfg.TTL, nil, log)
		}
	}

	store := session.NewMemoryStore(nil, log)
	if cfg.TTL > 0 {
		store.StartSweeper(ctx, cfg.TTL, time.Minute)
		log.Info("session eviction enabled", zap.Duration("ttl", cfg.TTL))
	}
	return store
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("loanflow backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
