package health

import (
	"strings"
	"testing"
	"time"

	"github.com/pagemesh/pagemesh/pkg/proto"
)

const siteURL = "https://example.com"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(siteURL).WithNow(func() time.Time { return now })
}

// perfectBody builds a body that trips no penalty on either rubric.
func perfectBody() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("content health analysis keeps articles fresh ", 300))
	b.WriteString(`<script type="application/ld+json">{"@type":"Article"}</script>`)
	b.WriteString(`<a href="/guides/a">a</a><a href="/guides/b">b</a><a href="https://example.com/c">c</a>`)
	b.WriteString(`<a href="http://one.org">1</a><a href="http://two.org">2</a><a href="http://three.org">3</a>`)
	b.WriteString("<h2>Verdict</h2> recommended")
	return b.String()
}

func TestScorePerfect(t *testing.T) {
	s := newTestScorer()
	res := s.Score(42, perfectBody(), now.AddDate(0, 0, -30))

	if res.SEOScore != 100 {
		t.Errorf("SEOScore = %d, want 100 (metrics: %+v)", res.SEOScore, res.Metrics)
	}
	if res.AEOScore != 100 {
		t.Errorf("AEOScore = %d, want 100 (metrics: %+v)", res.AEOScore, res.Metrics)
	}
	if res.DocumentID != 42 {
		t.Errorf("DocumentID = %d, want 42", res.DocumentID)
	}
	if res.Status != proto.StatusIdle {
		t.Errorf("Status = %q, want %q", res.Status, proto.StatusIdle)
	}
}

func TestScorePenaltiesIndependent(t *testing.T) {
	s := newTestScorer()
	recent := now.AddDate(0, 0, -30)

	tests := []struct {
		name    string
		body    string
		modified time.Time
		wantSEO int
		wantAEO int
	}{
		{
			name:    "missing schema",
			body:    strings.ReplaceAll(perfectBody(), "application/ld+json", "text/plain"),
			modified: recent,
			wantSEO: 90,
			wantAEO: 75,
		},
		{
			name:    "missing verdict",
			body:    strings.ReplaceAll(perfectBody(), "Verdict", "Notes"),
			modified: recent,
			wantSEO: 100,
			wantAEO: 70,
		},
		{
			name:    "stale over a year",
			body:    perfectBody(),
			modified: now.AddDate(-2, 0, 0),
			wantSEO: 80,
			wantAEO: 100,
		},
		{
			name:    "exactly 365 days is not stale",
			body:    perfectBody(),
			modified: now.Add(-365 * 24 * time.Hour),
			wantSEO: 100,
			wantAEO: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(1, tt.body, tt.modified)
			if res.SEOScore != tt.wantSEO {
				t.Errorf("SEOScore = %d, want %d", res.SEOScore, tt.wantSEO)
			}
			if res.AEOScore != tt.wantAEO {
				t.Errorf("AEOScore = %d, want %d", res.AEOScore, tt.wantAEO)
			}
		})
	}
}

func TestScoreThinPage(t *testing.T) {
	s := newTestScorer()
	res := s.Score(7, "<p>short page</p>", now.AddDate(-3, 0, 0))

	// All SEO penalties except schema-independent ones apply:
	// stale -20, thin -15, internal -15, external -10, schema -10.
	if res.SEOScore != 30 {
		t.Errorf("SEOScore = %d, want 30", res.SEOScore)
	}
	// No verdict -30, thin -10, no schema -25.
	if res.AEOScore != 35 {
		t.Errorf("AEOScore = %d, want 35", res.AEOScore)
	}
}

func TestCountLinks(t *testing.T) {
	s := newTestScorer()
	body := `<a href="/pricing">p</a>` +
		`<a href="https://example.com/blog">b</a>` +
		`<a href="https://other.org/x">x</a>` +
		`<a href="#section">s</a>` +
		`<a href="mailto:hi@example.org">m</a>`

	m := s.computeMetrics(body, now)
	if m.InternalLinks != 2 {
		t.Errorf("InternalLinks = %d, want 2", m.InternalLinks)
	}
	if m.ExternalLinks != 1 {
		t.Errorf("ExternalLinks = %d, want 1", m.ExternalLinks)
	}
}

func TestWordCountIncludesMarkup(t *testing.T) {
	s := newTestScorer()
	m := s.computeMetrics(`<p class="intro">two words</p>`, now)
	// p, class, intro, two, words, p: raw word runs, markup included.
	if m.WordCount != 6 {
		t.Errorf("WordCount = %d, want 6", m.WordCount)
	}
}

func TestDaysSince(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		modified time.Time
		want     int
	}{
		{"zero timestamp clamps to 0", time.Time{}, 0},
		{"one hour ago rounds up to 1", now.Add(-time.Hour), 1},
		{"exactly 10 days", now.AddDate(0, 0, -10), 10},
		{"future date uses absolute distance", now.Add(36 * time.Hour), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.daysSince(tt.modified); got != tt.want {
				t.Errorf("daysSince = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClampFloorsAtZero(t *testing.T) {
	if got := clamp(-15); got != 0 {
		t.Errorf("clamp(-15) = %d, want 0", got)
	}
	if got := clamp(55); got != 55 {
		t.Errorf("clamp(55) = %d, want 55", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer()
	body := perfectBody()
	modified := now.AddDate(0, 0, -100)
	first := s.Score(9, body, modified)
	for i := 0; i < 5; i++ {
		if got := s.Score(9, body, modified); got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}
