package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pagemesh/pagemesh/internal/analyzer/tokenizer"
	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/internal/generation"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/internal/normalizer"
	"github.com/pagemesh/pagemesh/internal/report"
	"github.com/pagemesh/pagemesh/internal/sanitizer"
	"github.com/pagemesh/pagemesh/internal/store"
	apperrors "github.com/pagemesh/pagemesh/pkg/errors"
	"github.com/pagemesh/pagemesh/pkg/logger"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// Generator is the slice of the generation client the handler needs.
type Generator interface {
	Generate(ctx context.Context, req generation.GenerateRequest) (*generation.GeneratedArticle, error)
}

// Handler serves the HTTP API. Every dependency except the engine is
// optional: a nil cache, store, collector, or generator disables the
// endpoints that need it.
type Handler struct {
	engine    *engine.Engine
	meshCache *mesh.Cache
	results   *store.Results
	collector *report.Collector
	generator Generator
	siteURL   string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a Handler.
func New(eng *engine.Engine, meshCache *mesh.Cache, results *store.Results, collector *report.Collector, generator Generator, siteURL string, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:    eng,
		meshCache: meshCache,
		results:   results,
		collector: collector,
		generator: generator,
		siteURL:   siteURL,
		logger:    slog.Default().With("component", "api-handler"),
		metrics:   m,
	}
}

// Analyze scores a single document and returns the health result. The
// result is persisted and tracked when a store and collector are wired.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := ValidateAnalyzeRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}
	siteURL := req.SiteURL
	if siteURL == "" {
		siteURL = h.siteURL
	}

	result, err := h.engine.AnalyzeHealth(ctx, &proto.AnalyzeHealthRequest{
		DocumentID: req.DocumentID,
		Body:       req.Body,
		ModifiedAt: req.ModifiedAt,
		SiteURL:    siteURL,
	})
	if err != nil {
		log.Error("analysis failed", "doc_id", req.DocumentID, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "analysis failed")
		return
	}
	latencyMs := time.Since(start).Milliseconds()

	if h.results != nil {
		if err := h.results.Save(ctx, *result); err != nil {
			log.Error("failed to persist result", "doc_id", req.DocumentID, "error", err)
		}
	}
	if h.collector != nil {
		h.collector.Track(proto.ScoreEvent{
			DocumentID: result.DocumentID,
			SEOScore:   result.SEOScore,
			AEOScore:   result.AEOScore,
			WordCount:  result.Metrics.WordCount,
			LatencyMs:  latencyMs,
			ScoredAt:   time.Now().UTC(),
		})
	}

	log.Info("document analyzed",
		"doc_id", result.DocumentID,
		"seo", result.SEOScore,
		"aeo", result.AEOScore,
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusOK, result)
}

// BuildMesh builds a mesh from the posted documents. When a site key is
// given and the cache is wired, an unexpired cached mesh is returned
// instead of rebuilding (the mesh is a pure function of the catalog, and
// concurrent builds for the same site collapse to one); use
// /api/v1/mesh/invalidate to force a rebuild before the TTL expires.
func (h *Handler) BuildMesh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req MeshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := ValidateMeshRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	var nodes []proto.SemanticNode
	var cached bool
	var err error
	if req.Site != "" && h.meshCache != nil {
		nodes, cached, err = h.meshCache.GetOrBuild(ctx, req.Site, func() ([]proto.SemanticNode, error) {
			return h.engine.BuildMesh(ctx, &proto.BuildMeshRequest{Documents: req.Documents})
		})
	} else {
		nodes, err = h.engine.BuildMesh(ctx, &proto.BuildMeshRequest{Documents: req.Documents})
	}
	if err != nil {
		log.Error("mesh build failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "mesh build failed")
		return
	}

	log.Info("mesh built", "site", req.Site, "documents", len(req.Documents), "nodes", len(nodes), "cached", cached)
	h.writeJSON(w, http.StatusOK, MeshResponse{Site: req.Site, Nodes: nodes, Cached: cached})
}

// GetMesh returns the cached mesh for a site.
func (h *Handler) GetMesh(w http.ResponseWriter, r *http.Request) {
	if h.meshCache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "mesh cache is disabled")
		return
	}
	site := r.URL.Query().Get("site")
	if site == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'site' is required")
		return
	}
	nodes, ok := h.meshCache.Get(r.Context(), site)
	if !ok {
		if h.metrics != nil {
			h.metrics.MeshCacheMissesTotal.Inc()
		}
		h.writeError(w, http.StatusNotFound, "no mesh cached for site")
		return
	}
	if h.metrics != nil {
		h.metrics.MeshCacheHitsTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, MeshResponse{Site: site, Nodes: nodes, Cached: true})
}

// Relevance ranks the posted mesh nodes against a target page and returns
// the nodes annotated with relevance scores, best first.
func (h *Handler) Relevance(w http.ResponseWriter, r *http.Request) {
	var req RelevanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Nodes) == 0 {
		h.writeError(w, http.StatusBadRequest, "nodes are required")
		return
	}

	target := tokenizer.Tokenize(req.Title + " " + req.Slug)
	tokenSets := make([][]string, len(req.Nodes))
	for i, node := range req.Nodes {
		tokenSets[i] = node.Tokens
	}
	ranked := mesh.Rank(target, tokenSets, req.Limit)

	out := make([]proto.SemanticNode, 0, len(ranked))
	for _, sn := range ranked {
		node := req.Nodes[sn.Index]
		node.Relevance = sn.Relevance
		out = append(out, node)
	}
	h.writeJSON(w, http.StatusOK, MeshResponse{Nodes: out})
}

// InvalidateMesh drops every cached mesh.
func (h *Handler) InvalidateMesh(w http.ResponseWriter, r *http.Request) {
	if h.meshCache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "mesh cache is disabled")
		return
	}
	if err := h.meshCache.Invalidate(r.Context()); err != nil {
		h.logger.Error("mesh cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Sanitize rewrites the posted HTML fragment against the posted link
// inventory.
func (h *Handler) Sanitize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req SanitizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := ValidateSanitizeRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}
	siteURL := req.SiteURL
	if siteURL == "" {
		siteURL = h.siteURL
	}

	result := sanitizer.New(req.Nodes, siteURL).Rewrite(req.HTML)
	h.observeSanitize(result)

	log.Info("html sanitized",
		"kept", result.Kept,
		"removed", result.Removed,
		"passthrough", result.Passthrough,
	)
	h.writeJSON(w, http.StatusOK, result)
}

// Normalize repairs residual Markdown in the posted fragment.
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	out, repairs := normalizer.NormalizeWithRepairs(req.Text)
	h.observeRepairs(repairs)
	h.writeJSON(w, http.StatusOK, NormalizeResponse{Text: out})
}

// Regenerate runs the full regeneration flow: call the generation service,
// repair the returned HTML, then sanitize its links against the site's
// cached mesh. The mesh must already exist; regeneration never builds one.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.generator == nil {
		h.writeError(w, http.StatusServiceUnavailable, "generation is disabled")
		return
	}
	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := ValidateRegenerateRequest(&req); err != nil {
		h.writeValidationError(w, err)
		return
	}
	if h.meshCache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "mesh cache is disabled")
		return
	}
	nodes, ok := h.meshCache.Get(ctx, req.Site)
	if !ok {
		h.writeError(w, http.StatusConflict, "no mesh cached for site; build the mesh first")
		return
	}

	article, err := h.generator.Generate(ctx, generation.GenerateRequest{
		DocumentID: req.DocumentID,
		Prompt:     req.Prompt,
		MeshNodes:  nodes,
	})
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("regeneration failed", "doc_id", req.DocumentID, "status_code", status, "error", err)
		h.writeError(w, status, "regeneration failed")
		return
	}

	siteURL := req.SiteURL
	if siteURL == "" {
		siteURL = h.siteURL
	}
	html, repairs := normalizer.NormalizeWithRepairs(article.HTML)
	h.observeRepairs(repairs)
	links := sanitizer.New(nodes, siteURL).Rewrite(html)
	h.observeSanitize(links)

	log.Info("document regenerated",
		"doc_id", req.DocumentID,
		"html_size", len(links.HTML),
		"links_kept", links.Kept,
		"links_removed", links.Removed,
	)
	h.writeJSON(w, http.StatusOK, RegenerateResponse{
		DocumentID:      req.DocumentID,
		Title:           article.Title,
		HTML:            links.HTML,
		MetaDescription: article.MetaDescription,
		Tags:            article.Tags,
		Confidence:      article.Confidence,
		Links:           links,
	})
}

// GetResult returns the stored health result for one document.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		h.writeError(w, http.StatusServiceUnavailable, "result storage is disabled")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	result, err := h.results.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResultNotFound) {
			h.writeError(w, http.StatusNotFound, "no result for document")
			return
		}
		h.logger.Error("failed to load result", "doc_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ListResults returns stored results, worst SEO scores first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		h.writeError(w, http.StatusServiceUnavailable, "result storage is disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}
	results, err := h.results.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list results", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// Report returns corpus-level aggregates computed from stored results.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	if h.results == nil {
		h.writeError(w, http.StatusServiceUnavailable, "result storage is disabled")
		return
	}
	summary, err := h.results.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to compute report", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute report")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// CacheStats reports mesh cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.meshCache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.meshCache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

// Health is the trivial liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) observeRepairs(rep normalizer.Repairs) {
	if h.metrics == nil {
		return
	}
	h.metrics.NormalizerRepairs.WithLabelValues("annotation").Add(float64(rep.Annotations))
	h.metrics.NormalizerRepairs.WithLabelValues("header").Add(float64(rep.Headers))
	h.metrics.NormalizerRepairs.WithLabelValues("bold").Add(float64(rep.Bold))
	h.metrics.NormalizerRepairs.WithLabelValues("list").Add(float64(rep.Lists))
}

func (h *Handler) observeSanitize(res sanitizer.Result) {
	if h.metrics == nil {
		return
	}
	h.metrics.LinksSanitizedTotal.WithLabelValues("kept").Add(float64(res.Kept))
	h.metrics.LinksSanitizedTotal.WithLabelValues("removed").Add(float64(res.Removed))
	h.metrics.LinksSanitizedTotal.WithLabelValues("passthrough").Add(float64(res.Passthrough))
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
