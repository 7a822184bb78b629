// Package pipeline connects the Kafka topics to the analysis engine. Article
// events are scored and persisted; catalog events rebuild the semantic mesh
// and refresh its cache.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/internal/report"
	"github.com/pagemesh/pagemesh/internal/store"
	"github.com/pagemesh/pagemesh/pkg/kafka"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/proto"
	"github.com/pagemesh/pagemesh/pkg/tracing"
)

// Consumer wraps a Kafka consumer to drive one side of the pipeline.
type Consumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewConsumer creates a pipeline Consumer backed by the given Kafka
// consumer.
func NewConsumer(kafkaConsumer *kafka.Consumer) *Consumer {
	return &Consumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "pipeline-consumer"),
	}
}

// Start begins consuming. It blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("pipeline consumer starting")
	return c.consumer.Start(ctx)
}

// HandleArticleEvent returns a Kafka MessageHandler that scores each article
// through the engine, persists the result, and tracks a score event. A nil
// results store or collector disables that side effect.
func HandleArticleEvent(eng *engine.Engine, results *store.Results, collector *report.Collector, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "article-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[proto.ArticleEvent](value)
		if err != nil {
			logger.Error("failed to decode article event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		ctx, span := tracing.StartSpan(ctx, "score-article", strconv.FormatInt(event.Document.ID, 10))
		span.SetAttr("doc_id", event.Document.ID)
		defer func() {
			span.End()
			span.Log()
		}()

		start := time.Now()
		result, err := eng.AnalyzeHealth(ctx, &proto.AnalyzeHealthRequest{
			DocumentID: event.Document.ID,
			Body:       event.Document.Body,
			ModifiedAt: event.Document.ModifiedAt,
			SiteURL:    event.SiteURL,
		})
		if err != nil {
			if m != nil {
				m.ArticlesScoredTotal.WithLabelValues("error").Inc()
			}
			return fmt.Errorf("scoring document %d: %w", event.Document.ID, err)
		}
		latencyMs := time.Since(start).Milliseconds()

		if results != nil {
			if err := results.Save(ctx, *result); err != nil {
				return fmt.Errorf("persisting result for document %d: %w", event.Document.ID, err)
			}
		}
		if collector != nil {
			collector.Track(proto.ScoreEvent{
				DocumentID: result.DocumentID,
				SEOScore:   result.SEOScore,
				AEOScore:   result.AEOScore,
				WordCount:  result.Metrics.WordCount,
				LatencyMs:  latencyMs,
				ScoredAt:   time.Now().UTC(),
			})
		}

		logger.Info("article scored",
			"doc_id", result.DocumentID,
			"seo", result.SEOScore,
			"aeo", result.AEOScore,
			"latency_ms", latencyMs,
		)
		return nil
	}
}

// HandleCatalogEvent returns a Kafka MessageHandler that rebuilds the mesh
// from a catalog snapshot and stores it in the cache under the event's site.
func HandleCatalogEvent(eng *engine.Engine, meshCache *mesh.Cache, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "catalog-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[proto.CatalogEvent](value)
		if err != nil {
			logger.Error("failed to decode catalog event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		ctx, span := tracing.StartSpan(ctx, "build-mesh", event.Site)
		span.SetAttr("site", event.Site)
		span.SetAttr("documents", len(event.Documents))
		defer func() {
			span.End()
			span.Log()
		}()

		nodes, err := eng.BuildMesh(ctx, &proto.BuildMeshRequest{Documents: event.Documents})
		if err != nil {
			return fmt.Errorf("building mesh for site %s: %w", event.Site, err)
		}
		if meshCache != nil {
			meshCache.Set(ctx, event.Site, nodes)
		}

		logger.Info("mesh rebuilt",
			"site", event.Site,
			"documents", len(event.Documents),
			"nodes", len(nodes),
		)
		return nil
	}
}
