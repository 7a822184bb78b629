// Package health computes content-health scores for a single document. Two
// independent 0–100 rubric scores are derived from structural metrics of the
// raw body: an SEO score (search-engine readiness) and an AEO score
// (answer-engine readiness).
//
// Metrics are computed over the raw, unstripped markup by pattern matching
// rather than DOM parsing. The word count intentionally includes word runs
// inside tags; switching to a cleaned count would shift every historical
// score, so the raw-run semantic is load-bearing.
package health

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/pagemesh/pagemesh/pkg/proto"
)

const (
	// schemaMarker is the structured-data marker substring checked in bodies.
	schemaMarker = "application/ld+json"

	millisPerDay = 86_400_000
)

var (
	wordRe    = regexp.MustCompile(`\w+`)
	hrefRe    = regexp.MustCompile(`href="([^"]*)"`)
	verdictRe = regexp.MustCompile(`(?i)verdict|conclusion|summary|pros and cons|bottom line`)
)

// Scorer scores documents against a canonical site URL. Now is injectable
// for deterministic tests and defaults to time.Now.
type Scorer struct {
	siteURL string
	now     func() time.Time
}

// NewScorer creates a Scorer for the given canonical site URL
// (scheme + host; a trailing slash is stripped).
func NewScorer(siteURL string) *Scorer {
	return &Scorer{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		now:     time.Now,
	}
}

// WithNow returns a copy of the Scorer using the given clock.
func (s *Scorer) WithNow(now func() time.Time) *Scorer {
	return &Scorer{siteURL: s.siteURL, now: now}
}

// Score computes the metrics and both rubric scores for one document body.
// It never fails: every well-formed string input produces a result. The
// returned result carries the idle status sentinel; lifecycle state belongs
// to the caller.
func (s *Scorer) Score(docID int64, body string, modifiedAt time.Time) proto.HealthResult {
	metrics := s.computeMetrics(body, modifiedAt)
	return proto.HealthResult{
		DocumentID: docID,
		SEOScore:   seoScore(metrics),
		AEOScore:   aeoScore(metrics),
		Status:     proto.StatusIdle,
		Metrics:    metrics,
	}
}

func (s *Scorer) computeMetrics(body string, modifiedAt time.Time) proto.HealthMetrics {
	internal, external := s.countLinks(body)
	return proto.HealthMetrics{
		WordCount:         len(wordRe.FindAllString(body, -1)),
		HasSchema:         strings.Contains(body, schemaMarker),
		HasVerdict:        verdictRe.MatchString(body),
		InternalLinks:     internal,
		ExternalLinks:     external,
		EntityDensity:     0,
		DaysSinceModified: s.daysSince(modifiedAt),
	}
}

// countLinks classifies every href in the body. Internal: contains the
// canonical site URL or starts with "/". External: starts with "http" and is
// not internal. Anything else counts as neither.
func (s *Scorer) countLinks(body string) (internal, external int) {
	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		href := m[1]
		switch {
		case (s.siteURL != "" && strings.Contains(href, s.siteURL)) || strings.HasPrefix(href, "/"):
			internal++
		case strings.HasPrefix(href, "http"):
			external++
		}
	}
	return internal, external
}

// daysSince returns the whole-day distance from now to modifiedAt, rounded
// up. A zero timestamp (upstream parse failure) clamps to 0 instead of
// producing an absurd staleness value.
func (s *Scorer) daysSince(modifiedAt time.Time) int {
	if modifiedAt.IsZero() {
		return 0
	}
	diff := s.now().Sub(modifiedAt)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff.Milliseconds()) / millisPerDay))
}

// seoScore applies the search-readiness rubric: independent additive
// penalties from 100, floored at 0.
func seoScore(m proto.HealthMetrics) int {
	score := 100
	if m.DaysSinceModified > 365 {
		score -= 20
	}
	if m.WordCount < 1000 {
		score -= 15
	}
	if m.InternalLinks < 3 {
		score -= 15
	}
	if m.ExternalLinks < 3 {
		score -= 10
	}
	if !m.HasSchema {
		score -= 10
	}
	return clamp(score)
}

// aeoScore applies the answer-engine rubric.
func aeoScore(m proto.HealthMetrics) int {
	score := 100
	if !m.HasVerdict {
		score -= 30
	}
	if m.WordCount < 1500 {
		score -= 10
	}
	if !m.HasSchema {
		score -= 25
	}
	return clamp(score)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
