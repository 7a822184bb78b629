// Package api exposes the analysis core over HTTP: health scoring, mesh
// building and relevance ranking, link sanitization, markdown repair, and
// the regeneration flow that chains the generation client through the
// normalizer and sanitizer.
package api

import (
	"time"

	"github.com/pagemesh/pagemesh/internal/sanitizer"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// AnalyzeRequest asks for a single document to be scored.
type AnalyzeRequest struct {
	DocumentID int64     `json:"document_id"`
	Body       string    `json:"body"`
	ModifiedAt time.Time `json:"modified_at"`
	SiteURL    string    `json:"site_url,omitempty"`
}

// MeshRequest asks for a mesh to be built from a document collection. When
// Site is set the cache is consulted first and the built mesh is stored
// under that key.
type MeshRequest struct {
	Site      string           `json:"site,omitempty"`
	Documents []proto.Document `json:"documents"`
}

// MeshResponse carries the built mesh. Cached reports whether it was served
// from the cache rather than built for this request.
type MeshResponse struct {
	Site   string               `json:"site,omitempty"`
	Nodes  []proto.SemanticNode `json:"nodes"`
	Cached bool                 `json:"cached"`
}

// RelevanceRequest ranks mesh nodes against a target page described by its
// title and slug.
type RelevanceRequest struct {
	Title string               `json:"title"`
	Slug  string               `json:"slug"`
	Nodes []proto.SemanticNode `json:"nodes"`
	Limit int                  `json:"limit,omitempty"`
}

// SanitizeRequest asks for an HTML fragment to be rewritten against the
// given link inventory.
type SanitizeRequest struct {
	HTML    string               `json:"html"`
	SiteURL string               `json:"site_url,omitempty"`
	Nodes   []proto.SemanticNode `json:"nodes"`
}

// NormalizeRequest asks for residual Markdown in a fragment to be repaired.
type NormalizeRequest struct {
	Text string `json:"text"`
}

// NormalizeResponse carries the repaired fragment.
type NormalizeResponse struct {
	Text string `json:"text"`
}

// RegenerateRequest drives the full regeneration flow for one document:
// generate, normalize, sanitize against the site's cached mesh.
type RegenerateRequest struct {
	DocumentID int64  `json:"document_id"`
	Site       string `json:"site"`
	Prompt     string `json:"prompt"`
	SiteURL    string `json:"site_url,omitempty"`
}

// RegenerateResponse is the publishable outcome of a regeneration.
type RegenerateResponse struct {
	DocumentID      int64            `json:"document_id"`
	Title           string           `json:"title"`
	HTML            string           `json:"html"`
	MetaDescription string           `json:"meta_description,omitempty"`
	Tags            []string         `json:"tags"`
	Confidence      float64          `json:"confidence"`
	Links           sanitizer.Result `json:"links"`
}
