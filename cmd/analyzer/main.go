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

	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/internal/pipeline"
	"github.com/pagemesh/pagemesh/internal/report"
	"github.com/pagemesh/pagemesh/internal/store"
	"github.com/pagemesh/pagemesh/pkg/config"
	"github.com/pagemesh/pagemesh/pkg/grpc"
	"github.com/pagemesh/pagemesh/pkg/kafka"
	"github.com/pagemesh/pagemesh/pkg/logger"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/postgres"
	pkgredis "github.com/pagemesh/pagemesh/pkg/redis"
	"golang.org/x/sync/errgroup"
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
	slog.Info("starting analyzer service", "workers", cfg.Engine.Workers)

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
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, mesh caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		meshCache = mesh.NewCache(redisClient, cfg.Redis)
	}

	var results *store.Results
	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, result storage disabled", "error", err)
	} else {
		defer pgClient.Close()
		results = store.NewResults(pgClient)
	}

	scoreProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents)
	collector := report.NewCollector(scoreProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	aggregator := report.NewAggregator()
	scoreConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents, report.HandleEvent(aggregator))
	reportH := report.NewHandler(aggregator)

	articleConsumer := pipeline.NewConsumer(kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.ArticleEvents,
		pipeline.HandleArticleEvent(eng, results, collector, m),
	))
	catalogConsumer := pipeline.NewConsumer(kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.CatalogEvents,
		pipeline.HandleCatalogEvent(eng, meshCache, m),
	))

	rpcServer := grpc.NewServer()
	pipeline.RegisterRPC(rpcServer, eng)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := rpcServer.Serve(addr); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	defer rpcServer.Stop()

	if cfg.Metrics.Enabled {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("GET /metrics", metrics.Handler())
			metricsMux.HandleFunc("GET /report", reportH.Report)
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			slog.Info("metrics server listening", "addr", addr)
			if err := http.ListenAndServe(addr, metricsMux); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	slog.Info("analyzer service ready, consuming from kafka",
		"article_topic", cfg.Kafka.Topics.ArticleEvents,
		"catalog_topic", cfg.Kafka.Topics.CatalogEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return articleConsumer.Start(ctx) })
	g.Go(func() error { return catalogConsumer.Start(ctx) })
	g.Go(func() error { return scoreConsumer.Start(ctx) })

	if err := g.Wait(); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("analyzer service stopped")
}
