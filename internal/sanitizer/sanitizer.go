// Package sanitizer validates and rewrites anchor tags in generated HTML
// against the site's known-good link inventory (the semantic mesh). Internal
// links that resolve to a mesh page are kept and marked; internal links that
// do not are replaced with a plain span so the visible text is never lost.
// True external links, fragment anchors, and mailto links pass through
// unmodified.
//
// The pass is a pure text rewrite: anchors are matched by pattern, not by
// DOM parsing, and a malformed anchor the pattern cannot match is left
// untouched. Each anchor is processed independently.
package sanitizer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pagemesh/pagemesh/pkg/proto"
)

const (
	// KeptLinkClass marks anchors that were validated against the mesh.
	KeptLinkClass = "internal-link"
	// RemovedLinkClass marks spans that replaced an invalid anchor.
	RemovedLinkClass = "removed-link"

	removedTitle = "Link removed: destination not in site inventory"
)

// anchorRe matches <a ... href="..." ...>text</a> with single- or
// double-quoted hrefs and arbitrary extra attributes on either side.
var anchorRe = regexp.MustCompile(`(?is)<a\s[^>]*?href\s*=\s*(?:"([^"]*)"|'([^']*)')[^>]*>(.*?)</a>`)

// Result is the outcome of one sanitization pass.
type Result struct {
	HTML        string `json:"html"`
	Kept        int    `json:"kept"`
	Removed     int    `json:"removed"`
	Passthrough int    `json:"passthrough"`
}

// Sanitizer rewrites anchors against a normalized-path index built from the
// mesh. The index is transient: built per pass, never persisted.
type Sanitizer struct {
	siteURL string
	index   map[string]struct{}
}

// New builds a Sanitizer from the mesh nodes representing all valid internal
// destinations and the canonical site URL.
func New(nodes []proto.SemanticNode, siteURL string) *Sanitizer {
	index := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if p := NormalizePath(node.URL); p != "" {
			index[p] = struct{}{}
		}
	}
	return &Sanitizer{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		index:   index,
	}
}

// NormalizePath reduces a URL to a comparable path: absolute URLs are parsed
// down to their path component, relative ones are used directly; both are
// lowercased with the trailing slash stripped. The same routine builds the
// index and normalizes candidate hrefs — sharing it is what keeps membership
// checks free of false negatives.
func NormalizePath(raw string) string {
	p := raw
	if strings.HasPrefix(raw, "http") {
		if u, err := url.Parse(raw); err == nil {
			p = u.Path
		}
	}
	p = strings.ToLower(p)
	return strings.TrimSuffix(p, "/")
}

// Rewrite runs the sanitization pass over the HTML fragment.
func (s *Sanitizer) Rewrite(html string) Result {
	res := Result{}
	res.HTML = anchorRe.ReplaceAllStringFunc(html, func(anchor string) string {
		m := anchorRe.FindStringSubmatch(anchor)
		if m == nil {
			return anchor
		}
		href := m[1]
		if href == "" {
			href = m[2]
		}
		text := m[3]

		if !s.isInternal(href) {
			res.Passthrough++
			return anchor
		}
		if s.isValid(href) {
			res.Kept++
			return `<a href="` + href + `" class="` + KeptLinkClass + `" title="` + escapeAttr(text) + `">` + text + `</a>`
		}
		res.Removed++
		return `<span class="` + RemovedLinkClass + `" title="` + removedTitle + `">` + text + `</span>`
	})
	return res
}

// isInternal classifies an href as pointing at this site. Anything that is
// not http, a fragment, or mailto falls back to internal — a deliberately
// loose heuristic that misclassifies tel: and ftp: schemes (kept as-is; see
// package docs).
func (s *Sanitizer) isInternal(href string) bool {
	switch {
	case strings.HasPrefix(href, "/"):
		return true
	case s.siteURL != "" && strings.Contains(href, s.siteURL):
		return true
	case strings.HasPrefix(href, "http"),
		strings.HasPrefix(href, "#"),
		strings.HasPrefix(href, "mailto"):
		return false
	default:
		return true
	}
}

// isValid tests index membership: exact match, or a suffix relationship in
// either direction against any entry. The suffix tolerance absorbs
// absolute/relative mismatches and is intentionally permissive — paths that
// merely share a suffix can be accepted.
func (s *Sanitizer) isValid(href string) bool {
	p := NormalizePath(href)
	if p == "" {
		return false
	}
	if _, ok := s.index[p]; ok {
		return true
	}
	for entry := range s.index {
		if strings.HasSuffix(entry, p) || strings.HasSuffix(p, entry) {
			return true
		}
	}
	return false
}

// escapeAttr escapes quotes so echoing link text into a title attribute
// cannot break out of it.
func escapeAttr(text string) string {
	text = strings.ReplaceAll(text, `"`, "&quot;")
	return strings.ReplaceAll(text, `'`, "&#39;")
}
