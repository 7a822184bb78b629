package benchmark

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pagemesh/pagemesh/internal/analyzer/health"
	"github.com/pagemesh/pagemesh/internal/mesh"
	"github.com/pagemesh/pagemesh/internal/sanitizer"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

func buildArticle(words, links int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("scored article body text segment ", words/5))
	b.WriteString(`<script type="application/ld+json">{"@type":"Article"}</script>`)
	for i := 0; i < links; i++ {
		fmt.Fprintf(&b, `<a href="/page-%d">link %d</a>`, i, i)
	}
	b.WriteString("<h2>Verdict</h2>")
	return b.String()
}

func BenchmarkScore(b *testing.B) {
	scorer := health.NewScorer("https://example.com")
	modified := time.Now().AddDate(0, 0, -45)

	for _, words := range []int{500, 2000, 10000} {
		body := buildArticle(words, 10)
		b.Run(fmt.Sprintf("words_%d", words), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(body)))
			for i := 0; i < b.N; i++ {
				result := scorer.Score(1, body, modified)
				_ = result
			}
		})
	}
}

func BenchmarkMeshBuild(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		docs := make([]proto.Document, size)
		for i := range docs {
			docs[i] = proto.Document{
				ID:    int64(i + 1),
				Title: fmt.Sprintf("Article Number %d Review", i),
				Slug:  fmt.Sprintf("article-number-%d-review", i),
				URL:   fmt.Sprintf("/article-number-%d-review", i),
			}
		}
		builder := mesh.NewBuilder(nil)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				nodes := builder.Build(docs)
				_ = nodes
			}
		})
	}
}

func BenchmarkSanitize(b *testing.B) {
	nodes := make([]proto.SemanticNode, 200)
	for i := range nodes {
		nodes[i] = proto.SemanticNode{ID: int64(i + 1), URL: fmt.Sprintf("/page-%d", i)}
	}
	s := sanitizer.New(nodes, "https://example.com")
	html := buildArticle(2000, 30)

	b.ReportAllocs()
	b.SetBytes(int64(len(html)))
	for i := 0; i < b.N; i++ {
		result := s.Rewrite(html)
		_ = result
	}
}
