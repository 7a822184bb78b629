package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagemesh/pagemesh/internal/api"
	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/internal/generation"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/internal/report"
	"github.com/pagemesh/pagemesh/internal/store"
	"github.com/pagemesh/pagemesh/pkg/config"
	"github.com/pagemesh/pagemesh/pkg/health"
	"github.com/pagemesh/pagemesh/pkg/kafka"
	"github.com/pagemesh/pagemesh/pkg/logger"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/middleware"
	"github.com/pagemesh/pagemesh/pkg/postgres"
	pkgredis "github.com/pagemesh/pagemesh/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting api service", "port", cfg.Server.Port)

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.New(cfg.Engine, m)
	go func() {
		if err := eng.Start(ctx); err != nil {
			slog.Error("engine error", "error", err)
		}
	}()

	var meshCache *mesh.Cache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, mesh caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		meshCache = mesh.NewCache(redisClient, cfg.Redis)
		slog.Info("mesh cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	var results *store.Results
	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, result storage disabled", "error", err)
	} else {
		defer pgClient.Close()
		results = store.NewResults(pgClient)
		slog.Info("result storage enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	scoreProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents)
	collector := report.NewCollector(scoreProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("score collector started", "topic", cfg.Kafka.Topics.ScoreEvents)

	generator := generation.NewClient(cfg.Generation, m)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := api.New(eng, meshCache, results, collector, generator, cfg.Scoring.SiteURL, m)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/analyze", h.Analyze)
	mux.HandleFunc("POST /api/v1/mesh", h.BuildMesh)
	mux.HandleFunc("GET /api/v1/mesh", h.GetMesh)
	mux.HandleFunc("POST /api/v1/mesh/relevance", h.Relevance)
	mux.HandleFunc("POST /api/v1/mesh/invalidate", h.InvalidateMesh)
	mux.HandleFunc("GET /api/v1/mesh/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/sanitize", h.Sanitize)
	mux.HandleFunc("POST /api/v1/normalize", h.Normalize)
	mux.HandleFunc("POST /api/v1/regenerate", h.Regenerate)
	mux.HandleFunc("GET /api/v1/results/{id}", h.GetResult)
	mux.HandleFunc("GET /api/v1/results", h.ListResults)
	mux.HandleFunc("GET /api/v1/report", h.Report)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		stopMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer stopMetrics(context.Background())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("api service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("api service stopped")
}
