package sanitizer

import (
	"strings"
	"testing"

	"github.com/pagemesh/pagemesh/pkg/proto"
)

const siteURL = "https://example.com"

func testNodes() []proto.SemanticNode {
	return []proto.SemanticNode{
		{ID: 1, URL: "/best-crm-tools"},
		{ID: 2, URL: "https://example.com/email-guide/"},
		{ID: 3, URL: "/Reviews/CRM-Pricing"},
	}
}

func TestRewriteKeepsValidInternal(t *testing.T) {
	s := New(testNodes(), siteURL)
	res := s.Rewrite(`see <a href="/best-crm-tools">our tools</a> here`)

	if res.Kept != 1 || res.Removed != 0 || res.Passthrough != 0 {
		t.Fatalf("counts = %d/%d/%d, want 1/0/0", res.Kept, res.Removed, res.Passthrough)
	}
	if !strings.Contains(res.HTML, `class="`+KeptLinkClass+`"`) {
		t.Errorf("kept anchor missing marker class: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, ">our tools</a>") {
		t.Errorf("anchor text altered: %s", res.HTML)
	}
}

func TestRewriteRemovesUnknownInternal(t *testing.T) {
	s := New(testNodes(), siteURL)
	res := s.Rewrite(`<a href="/made-up-page">X</a>`)

	if res.Removed != 1 {
		t.Fatalf("Removed = %d, want 1", res.Removed)
	}
	if strings.Contains(res.HTML, "<a ") {
		t.Errorf("anchor not removed: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `<span class="`+RemovedLinkClass+`"`) {
		t.Errorf("replacement span missing: %s", res.HTML)
	}
	// The visible text survives the removal.
	if !strings.Contains(res.HTML, ">X</span>") {
		t.Errorf("link text lost: %s", res.HTML)
	}
}

func TestRewritePassthrough(t *testing.T) {
	s := New(testNodes(), siteURL)
	html := `<a href="https://other.org/page">ext</a> <a href="#top">top</a> <a href="mailto:a@b.c">mail</a>`
	res := s.Rewrite(html)

	if res.Passthrough != 3 || res.Kept != 0 || res.Removed != 0 {
		t.Fatalf("counts = %d/%d/%d, want 0/0/3", res.Kept, res.Removed, res.Passthrough)
	}
	if res.HTML != html {
		t.Errorf("passthrough anchors modified: %s", res.HTML)
	}
}

func TestRewriteNormalization(t *testing.T) {
	s := New(testNodes(), siteURL)

	tests := []struct {
		name string
		href string
	}{
		{"absolute form of relative entry", "https://example.com/best-crm-tools"},
		{"trailing slash tolerated", "/email-guide/"},
		{"case-insensitive", "/reviews/crm-pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Rewrite(`<a href="` + tt.href + `">t</a>`)
			if res.Kept != 1 {
				t.Errorf("href %q: Kept = %d, want 1 (removed=%d passthrough=%d)",
					tt.href, res.Kept, res.Removed, res.Passthrough)
			}
		})
	}
}

func TestRewriteSingleQuotedHref(t *testing.T) {
	s := New(testNodes(), siteURL)
	res := s.Rewrite(`<a href='/best-crm-tools' rel="nofollow">q</a>`)
	if res.Kept != 1 {
		t.Errorf("Kept = %d, want 1", res.Kept)
	}
}

func TestRewriteNonHTTPSchemeFallsBackToInternal(t *testing.T) {
	s := New(testNodes(), siteURL)
	// tel: is neither http, fragment, nor mailto, so it classifies as
	// internal and fails validation.
	res := s.Rewrite(`<a href="tel:+15551234567">call</a>`)
	if res.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Removed)
	}
}

func TestRewriteMalformedAnchorUntouched(t *testing.T) {
	s := New(testNodes(), siteURL)
	html := `<a class="x">no href</a> plain text`
	res := s.Rewrite(html)
	if res.HTML != html {
		t.Errorf("malformed anchor modified: %s", res.HTML)
	}
	if res.Kept+res.Removed+res.Passthrough != 0 {
		t.Errorf("counts nonzero for unmatched anchor: %+v", res)
	}
}

func TestRewriteMixed(t *testing.T) {
	s := New(testNodes(), siteURL)
	html := `<a href="/best-crm-tools">a</a><a href="/nope">b</a><a href="https://other.org">c</a>`
	res := s.Rewrite(html)
	if res.Kept != 1 || res.Removed != 1 || res.Passthrough != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", res.Kept, res.Removed, res.Passthrough)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/Page/", "/page"},
		{"/Page/", "/page"},
		{"/page", "/page"},
		{"https://example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.raw); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
