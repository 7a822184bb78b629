package mesh

import (
	"reflect"
	"testing"

	"github.com/pagemesh/pagemesh/pkg/proto"
)

func TestBuildPreservesOrder(t *testing.T) {
	docs := []proto.Document{
		{ID: 3, Title: "Best CRM Tools", Slug: "best-crm-tools", URL: "/best-crm-tools"},
		{ID: 1, Title: "Email Marketing Guide", Slug: "email-marketing-guide", URL: "/email-marketing-guide"},
		{ID: 2, Title: "CRM Pricing Review", Slug: "crm-pricing-review", URL: "/crm-pricing-review"},
	}

	nodes := NewBuilder(nil).Build(docs)

	if len(nodes) != len(docs) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(docs))
	}
	for i, doc := range docs {
		if nodes[i].ID != doc.ID {
			t.Errorf("node %d: ID = %d, want %d", i, nodes[i].ID, doc.ID)
		}
		if nodes[i].URL != doc.URL {
			t.Errorf("node %d: URL = %q, want %q", i, nodes[i].URL, doc.URL)
		}
	}
}

func TestBuildTokensFromTitleAndSlug(t *testing.T) {
	docs := []proto.Document{
		{ID: 1, Title: "Email Guide", Slug: "deliverability-tips", URL: "/x"},
	}
	nodes := NewBuilder(nil).Build(docs)

	want := []string{"deliverability", "email", "guide", "tips"}
	if !reflect.DeepEqual(nodes[0].Tokens, want) {
		t.Errorf("Tokens = %v, want %v", nodes[0].Tokens, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	nodes := NewBuilder(nil).Build(nil)
	if len(nodes) != 0 {
		t.Errorf("got %d nodes, want 0", len(nodes))
	}
}

func TestRank(t *testing.T) {
	target := map[string]struct{}{"crm": {}, "tools": {}, "review": {}, "pricing": {}}
	tokenSets := [][]string{
		{"crm", "pricing", "review", "tools"}, // full overlap
		{"email", "marketing"},                // none
		{"crm", "comparison"},                 // partial
		{},                                    // empty set skipped
	}

	ranked := Rank(target, tokenSets, 0)

	if len(ranked) != 2 {
		t.Fatalf("got %d scored nodes, want 2: %+v", len(ranked), ranked)
	}
	if ranked[0].Index != 0 {
		t.Errorf("best match index = %d, want 0", ranked[0].Index)
	}
	if ranked[0].Relevance != 1.0 {
		t.Errorf("best relevance = %v, want 1.0", ranked[0].Relevance)
	}
	if ranked[1].Index != 2 {
		t.Errorf("second index = %d, want 2", ranked[1].Index)
	}
	if ranked[1].Relevance <= 0 || ranked[1].Relevance >= 1 {
		t.Errorf("partial relevance = %v, want within (0, 1)", ranked[1].Relevance)
	}
}

func TestRankLimit(t *testing.T) {
	target := map[string]struct{}{"guide": {}}
	tokenSets := [][]string{{"guide"}, {"guide"}, {"guide"}}

	ranked := Rank(target, tokenSets, 2)
	if len(ranked) != 2 {
		t.Fatalf("got %d, want 2", len(ranked))
	}
	// Equal scores break ties by index.
	if ranked[0].Index != 0 || ranked[1].Index != 1 {
		t.Errorf("tie-break order = %d,%d, want 0,1", ranked[0].Index, ranked[1].Index)
	}
}

func TestRankEmptyTarget(t *testing.T) {
	if got := Rank(nil, [][]string{{"a"}}, 0); got != nil {
		t.Errorf("Rank with empty target = %v, want nil", got)
	}
}
