package normalizer

import (
	"strings"
	"testing"
)

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"h2", "## Getting Started", "<h2>Getting Started</h2>"},
		{"h3", "### Details", "<h3>Details</h3>"},
		{"h4", "#### Fine Print", "<h4>Fine Print</h4>"},
		{
			"only line-start markers convert",
			"see the ## note",
			"see the ## note",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeBold(t *testing.T) {
	got := Normalize("this is **really** important")
	want := "this is <strong>really</strong> important"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeWordCountAnnotation(t *testing.T) {
	tests := []string{
		"intro (250 words, total 1840) outro",
		"intro (1 word, total: 12) outro",
	}
	for _, in := range tests {
		got := Normalize(in)
		if strings.Contains(got, "words") || strings.Contains(got, "word,") {
			t.Errorf("annotation survived: %q -> %q", in, got)
		}
		if !strings.HasPrefix(got, "intro") || !strings.HasSuffix(got, "outro") {
			t.Errorf("surrounding text damaged: %q", got)
		}
	}
}

func TestNormalizeBullets(t *testing.T) {
	in := "intro\n- first\n- second\noutro"
	got := Normalize(in)
	want := "intro\n<ul>\n<li>first</li>\n<li>second</li>\n</ul>\noutro"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeBulletsSkippedWhenListPresent(t *testing.T) {
	in := "<ul><li>a</li></ul>\n- leftover"
	got := Normalize(in)
	if strings.Count(got, "<ul>") != 1 {
		t.Errorf("extra list introduced: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"## Title\n\nSome **bold** text (12 words, total 900)\n- a\n- b\n",
		"plain paragraph with nothing to repair",
		"<h2>Already HTML</h2><strong>fine</strong>",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent:\n once: %q\ntwice: %q", once, twice)
		}
	}
}

func TestNormalizeOrderAnnotationBeforeHeader(t *testing.T) {
	got := Normalize("## Section (40 words, total 200)")
	if strings.Contains(got, "words") {
		t.Errorf("annotation leaked into heading: %q", got)
	}
	if !strings.HasPrefix(got, "<h2>Section") {
		t.Errorf("heading not converted: %q", got)
	}
}

func TestNormalizeWithRepairs(t *testing.T) {
	in := "## A\n### B\n**x** and **y** (5 words, total 10)\n- one\n- two\n"
	out, rep := NormalizeWithRepairs(in)
	if out == "" {
		t.Fatal("empty output")
	}
	if rep.Headers != 2 {
		t.Errorf("Headers = %d, want 2", rep.Headers)
	}
	if rep.Bold != 2 {
		t.Errorf("Bold = %d, want 2", rep.Bold)
	}
	if rep.Annotations != 1 {
		t.Errorf("Annotations = %d, want 1", rep.Annotations)
	}
	if rep.Lists != 1 {
		t.Errorf("Lists = %d, want 1", rep.Lists)
	}
}
