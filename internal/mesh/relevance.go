package mesh

import (
	"math"
	"sort"
)

// ScoredNodeIndex pairs a node's position in the mesh with its relevance
// against a target token set.
type ScoredNodeIndex struct {
	Index     int     `json:"index"`
	Relevance float64 `json:"relevance"`
}

// Rank scores every node in tokenSets against the target token set and
// returns node indexes ordered by descending relevance (ties broken by
// index for determinism). Relevance is token overlap normalized by the
// geometric mean of both set sizes, rounded to four decimals. Nodes with no
// overlap are omitted.
func Rank(target map[string]struct{}, tokenSets [][]string, limit int) []ScoredNodeIndex {
	if len(target) == 0 {
		return nil
	}
	scored := make([]ScoredNodeIndex, 0, len(tokenSets))
	for i, tokens := range tokenSets {
		if len(tokens) == 0 {
			continue
		}
		overlap := 0
		for _, tok := range tokens {
			if _, ok := target[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		norm := math.Sqrt(float64(len(target)) * float64(len(tokens)))
		score := math.Round(float64(overlap)/norm*10000) / 10000
		scored = append(scored, ScoredNodeIndex{Index: i, Relevance: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Relevance != scored[j].Relevance {
			return scored[i].Relevance > scored[j].Relevance
		}
		return scored[i].Index < scored[j].Index
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
