// Package normalizer repairs residual Markdown syntax leaking into
// HTML-only generator output. It is a best-effort, single-pass cleanup:
// headers, bold spans, simple bullet lists, and stray word-count
// annotations. It does not attempt full Markdown parsing (nested lists,
// tables, and links are out), and it is idempotent — running it on its own
// output changes nothing.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	wordCountRe = regexp.MustCompile(`\(\s*\d+\s+words?,\s*total:?\s*\d+\s*\)`)
	h4Re        = regexp.MustCompile(`(?m)^####\s+(.+)$`)
	h3Re        = regexp.MustCompile(`(?m)^###\s+(.+)$`)
	h2Re        = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	bulletRe    = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
	liRunRe     = regexp.MustCompile(`(?:<li>.*</li>\n?)+`)
)

// Repairs counts the corrections applied by one Normalize pass, by kind.
type Repairs struct {
	Annotations int
	Headers     int
	Bold        int
	Lists       int
}

// Normalize applies the ordered repair passes and trims surrounding
// whitespace. The order matters: annotations are stripped before header
// conversion so a trailing "(312 words, total 1840)" never ends up inside a
// heading tag, and list wrapping runs last so it sees the final line shapes.
func Normalize(text string) string {
	out, _ := NormalizeWithRepairs(text)
	return out
}

// NormalizeWithRepairs is Normalize plus a per-kind count of the repairs
// applied, for observation.
func NormalizeWithRepairs(text string) (string, Repairs) {
	var rep Repairs

	rep.Annotations = len(wordCountRe.FindAllStringIndex(text, -1))
	text = wordCountRe.ReplaceAllString(text, "")

	rep.Headers = len(h4Re.FindAllStringIndex(text, -1)) +
		len(h3Re.FindAllStringIndex(text, -1)) +
		len(h2Re.FindAllStringIndex(text, -1))
	text = h4Re.ReplaceAllString(text, "<h4>$1</h4>")
	text = h3Re.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Re.ReplaceAllString(text, "<h2>$1</h2>")

	rep.Bold = len(boldRe.FindAllStringIndex(text, -1))
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")

	before := text
	text = convertBullets(text)
	if text != before {
		rep.Lists = strings.Count(text, "<ul>")
	}

	return strings.TrimSpace(text), rep
}

// convertBullets turns Markdown bullet lines into <li> items and wraps each
// consecutive run in a <ul>. Skipped entirely when the text already carries
// a <ul>, which is also what makes the pass idempotent.
func convertBullets(text string) string {
	if strings.Contains(text, "<ul>") {
		return text
	}
	if !strings.Contains(text, "\n- ") && !strings.Contains(text, "\n* ") {
		return text
	}
	text = bulletRe.ReplaceAllString(text, "<li>$1</li>")
	return liRunRe.ReplaceAllStringFunc(text, func(run string) string {
		trailingNewline := strings.HasSuffix(run, "\n")
		run = strings.TrimSuffix(run, "\n")
		wrapped := "<ul>\n" + run + "\n</ul>"
		if trailingNewline {
			wrapped += "\n"
		}
		return wrapped
	})
}
