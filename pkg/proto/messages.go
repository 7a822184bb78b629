// Package proto defines the shared message types exchanged between the
// content-health engine and its callers: documents, health results, semantic
// mesh nodes, and the tagged request/response envelopes used over the
// engine's typed channels and the platform's Kafka topics.
//
// The types are hand-written with JSON struct tags so the same shapes travel
// over Kafka and the HTTP API without a separate wire schema.
package proto

import "time"

// ---------- Common ----------

// Document is an immutable article snapshot as fetched from the CMS.
// The core never mutates it.
type Document struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	URL        string    `json:"url"`
	ModifiedAt time.Time `json:"modified_at"`
	Body       string    `json:"body"`
}

// StatusIdle is the lifecycle sentinel every freshly created HealthResult
// carries. State transitions are owned by the caller, never by the scorer.
const StatusIdle = "IDLE"

// HealthMetrics holds the structural metrics derived from a single document
// body. Recomputed from scratch on every scoring call.
type HealthMetrics struct {
	WordCount         int  `json:"word_count"`
	HasSchema         bool `json:"has_schema"`
	HasVerdict        bool `json:"has_verdict"`
	InternalLinks     int  `json:"internal_links"`
	ExternalLinks     int  `json:"external_links"`
	EntityDensity     int  `json:"entity_density"` // reserved, always 0 in the fast path
	DaysSinceModified int  `json:"days_since_modified"`
}

// HealthResult is the outcome of scoring one document. Immutable after
// creation.
type HealthResult struct {
	DocumentID int64         `json:"document_id"`
	SEOScore   int           `json:"seo_score"`
	AEOScore   int           `json:"aeo_score"`
	Status     string        `json:"status"`
	Metrics    HealthMetrics `json:"metrics"`
}

// SemanticNode is one entry in the site mesh: a token-annotated page used as
// the internal-linking inventory. Relevance is populated by consumers, not
// by the mesh builder.
type SemanticNode struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Tokens    []string `json:"tokens"`
	Relevance float64  `json:"relevance,omitempty"`
}

// ---------- Engine envelopes ----------

// OpKind tags an engine request with its operation.
type OpKind string

// ResultKind tags an engine response with its payload type.
type ResultKind string

const (
	OpAnalyzeHealth OpKind = "ANALYZE_HEALTH"
	OpBuildMesh     OpKind = "BUILD_MESH"

	ResultHealth ResultKind = "HEALTH_RESULT"
	ResultMesh   ResultKind = "MESH_RESULT"
)

// AnalyzeHealthRequest asks the engine to score a single document.
type AnalyzeHealthRequest struct {
	DocumentID int64     `json:"document_id"`
	Body       string    `json:"body"`
	ModifiedAt time.Time `json:"modified_at"`
	SiteURL    string    `json:"site_url"`
}

// BuildMeshRequest asks the engine to convert an ordered document collection
// into mesh nodes.
type BuildMeshRequest struct {
	Documents []Document `json:"documents"`
}

// ---------- Kafka events ----------

// ArticleEvent is the payload on the article-events topic: one fetched
// article ready for scoring.
type ArticleEvent struct {
	Document  Document  `json:"document"`
	SiteURL   string    `json:"site_url"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CatalogEvent is the payload on the catalog-events topic: a full snapshot
// of the site's pages, triggering a mesh rebuild.
type CatalogEvent struct {
	Site      string     `json:"site"`
	Documents []Document `json:"documents"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// ScoreEvent is published after a document is scored, for the report
// aggregator and any downstream consumers.
type ScoreEvent struct {
	DocumentID int64     `json:"document_id"`
	SEOScore   int       `json:"seo_score"`
	AEOScore   int       `json:"aeo_score"`
	WordCount  int       `json:"word_count"`
	LatencyMs  int64     `json:"latency_ms"`
	ScoredAt   time.Time `json:"scored_at"`
}
