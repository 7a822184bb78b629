// Package mesh builds and serves the semantic mesh: the flat collection of
// token-annotated site pages used as the internal-linking inventory.
// Building is per-document only; relevance between nodes is computed on
// demand by consumers (see relevance.go), never stored in the mesh.
package mesh

import (
	"github.com/pagemesh/pagemesh/internal/analyzer/tokenizer"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// Builder converts documents into SemanticNodes using a fixed tokenizer.
type Builder struct {
	tok *tokenizer.Tokenizer
}

// NewBuilder creates a Builder. A nil tokenizer uses the package default
// stop-word set.
func NewBuilder(tok *tokenizer.Tokenizer) *Builder {
	if tok == nil {
		tok = tokenizer.New(nil)
	}
	return &Builder{tok: tok}
}

// Build converts the ordered document collection into one SemanticNode per
// document, preserving input order. Each node's token set is the tokenizer
// applied to the document's title and slug. No cross-document computation
// happens here.
func (b *Builder) Build(docs []proto.Document) []proto.SemanticNode {
	nodes := make([]proto.SemanticNode, 0, len(docs))
	for _, doc := range docs {
		nodes = append(nodes, proto.SemanticNode{
			ID:     doc.ID,
			Title:  doc.Title,
			URL:    doc.URL,
			Tokens: b.tok.TokenList(doc.Title + " " + doc.Slug),
		})
	}
	return nodes
}
