// Package engine is the message boundary around the pure analysis core.
// Callers exchange discrete, kind-tagged requests and responses over typed
// channels; a fixed pool of workers executes health scoring and mesh
// building off the caller's control flow. Workers share no mutable state —
// every computation runs on one immutable document snapshot — so any number
// of callers may submit concurrently without coordination.
//
// There is no in-flight cancellation: computations are short enough to run
// to completion, and a caller that no longer cares simply discards the
// response channel.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagemesh/pagemesh/internal/analyzer/health"
	"github.com/pagemesh/pagemesh/internal/analyzer/tokenizer"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/pkg/config"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/proto"
	"golang.org/x/sync/errgroup"
)

// Request is one kind-tagged operation submitted to the engine. Exactly one
// payload field matching Kind must be set.
type Request struct {
	Kind    proto.OpKind
	Analyze *proto.AnalyzeHealthRequest
	Mesh    *proto.BuildMeshRequest
}

// Response is the kind-tagged result of one Request.
type Response struct {
	Kind   proto.ResultKind
	Health *proto.HealthResult
	Mesh   []proto.SemanticNode
}

type envelope struct {
	req   Request
	reply chan Response
}

// Engine runs the worker pool.
type Engine struct {
	requests chan envelope
	workers  int
	builder  *mesh.Builder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an Engine. A nil metrics is allowed and disables observation.
func New(cfg config.EngineConfig, m *metrics.Metrics) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Engine{
		requests: make(chan envelope, queueSize),
		workers:  workers,
		builder:  mesh.NewBuilder(tokenizer.New(nil)),
		metrics:  m,
		logger:   slog.Default().With("component", "engine"),
	}
}

// Start launches the worker pool and blocks until ctx is cancelled and all
// workers have drained.
func (e *Engine) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case env := <-e.requests:
					env.reply <- e.process(env.req)
				}
			}
		})
	}
	e.logger.Info("engine started", "workers", e.workers, "queue_size", cap(e.requests))
	return g.Wait()
}

// Submit enqueues a request and returns the channel its response will
// arrive on. The channel is buffered so a worker never blocks on a caller
// that walked away.
func (e *Engine) Submit(ctx context.Context, req Request) (<-chan Response, error) {
	reply := make(chan Response, 1)
	select {
	case e.requests <- envelope{req: req, reply: reply}:
		return reply, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("submitting %s: %w", req.Kind, ctx.Err())
	}
}

// AnalyzeHealth submits an ANALYZE_HEALTH request and waits for its result.
func (e *Engine) AnalyzeHealth(ctx context.Context, req *proto.AnalyzeHealthRequest) (*proto.HealthResult, error) {
	reply, err := e.Submit(ctx, Request{Kind: proto.OpAnalyzeHealth, Analyze: req})
	if err != nil {
		return nil, err
	}
	select {
	case resp := <-reply:
		return resp.Health, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting health result: %w", ctx.Err())
	}
}

// BuildMesh submits a BUILD_MESH request and waits for its result.
func (e *Engine) BuildMesh(ctx context.Context, req *proto.BuildMeshRequest) ([]proto.SemanticNode, error) {
	reply, err := e.Submit(ctx, Request{Kind: proto.OpBuildMesh, Mesh: req})
	if err != nil {
		return nil, err
	}
	select {
	case resp := <-reply:
		return resp.Mesh, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting mesh result: %w", ctx.Err())
	}
}

func (e *Engine) process(req Request) Response {
	switch req.Kind {
	case proto.OpAnalyzeHealth:
		start := time.Now()
		scorer := health.NewScorer(req.Analyze.SiteURL)
		result := scorer.Score(req.Analyze.DocumentID, req.Analyze.Body, req.Analyze.ModifiedAt)
		if e.metrics != nil {
			e.metrics.ScoreLatency.Observe(time.Since(start).Seconds())
			e.metrics.SEOScoreDist.Observe(float64(result.SEOScore))
			e.metrics.AEOScoreDist.Observe(float64(result.AEOScore))
			e.metrics.ArticlesScoredTotal.WithLabelValues("ok").Inc()
		}
		e.logger.Debug("document scored",
			"doc_id", result.DocumentID,
			"seo", result.SEOScore,
			"aeo", result.AEOScore,
		)
		return Response{Kind: proto.ResultHealth, Health: &result}

	case proto.OpBuildMesh:
		nodes := e.builder.Build(req.Mesh.Documents)
		if e.metrics != nil {
			e.metrics.MeshBuildsTotal.Inc()
			e.metrics.MeshNodes.Set(float64(len(nodes)))
		}
		e.logger.Debug("mesh built", "nodes", len(nodes))
		return Response{Kind: proto.ResultMesh, Mesh: nodes}

	default:
		e.logger.Error("unknown operation kind", "kind", req.Kind)
		return Response{}
	}
}
