package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pagemesh/pagemesh/internal/analyzer/tokenizer"
)

var sampleTexts = map[string]string{
	"title": "Best Email Marketing Software: 2026 Review",
	"slug":  "best-email-marketing-software-2026-review",
	"long": strings.Repeat(`Content health scoring combines structural signals like word
        count, schema markup, link density, and freshness into deterministic rubric
        scores. The semantic mesh annotates every page with its significant tokens so
        internal linking suggestions stay grounded in real site inventory. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["long"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text)
			_ = tokens
		}
	})
}

func BenchmarkTokenListVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "content health mesh sanitizer scoring pipeline "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				list := tokenizer.TokenList(text)
				_ = list
			}
		})
	}
}
