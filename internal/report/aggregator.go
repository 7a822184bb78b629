package report

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pagemesh/pagemesh/pkg/kafka"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// healthyThreshold is the score below which an article counts as needing
// attention in the corpus report.
const healthyThreshold = 65

// CorpusReport is the aggregated view of scoring activity since startup.
type CorpusReport struct {
	TotalScored     int64          `json:"total_scored"`
	AvgSEOScore     float64        `json:"avg_seo_score"`
	AvgAEOScore     float64        `json:"avg_aeo_score"`
	P50SEOScore     int            `json:"p50_seo_score"`
	P95LatencyMs    int64          `json:"p95_latency_ms"`
	BelowSEO        int64          `json:"below_seo_threshold"`
	BelowAEO        int64          `json:"below_aeo_threshold"`
	WorstArticles   []ArticleScore `json:"worst_articles"`
	ScoresPerMinute float64        `json:"scores_per_minute"`
}

// ArticleScore pairs a document with its latest scores for ranking.
type ArticleScore struct {
	DocumentID int64 `json:"document_id"`
	SEOScore   int   `json:"seo_score"`
	AEOScore   int   `json:"aeo_score"`
}

// Aggregator consumes the score-events topic and maintains in-memory corpus
// statistics. Only the latest score per document is kept for ranking; the
// running sums count every event.
type Aggregator struct {
	mu          sync.RWMutex
	totalScored atomic.Int64
	belowSEO    atomic.Int64
	belowAEO    atomic.Int64
	seoSum      int64
	aeoSum      int64
	seoScores   []int
	latencies   []int64
	latest      map[int64]ArticleScore
	startTime   time.Time

	logger *slog.Logger
}

// NewAggregator creates an empty Aggregator. Wire HandleEvent into a Kafka
// consumer to feed it.
func NewAggregator() *Aggregator {
	return &Aggregator{
		seoScores: make([]int, 0, 10000),
		latencies: make([]int64, 0, 10000),
		latest:    make(map[int64]ArticleScore),
		startTime: time.Now(),
		logger:    slog.Default().With("component", "report-aggregator"),
	}
}

// HandleEvent returns the Kafka handler feeding an Aggregator. Undecodable
// events are logged and skipped, never retried.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[proto.ScoreEvent](value)
		if err != nil {
			agg.logger.Error("failed to decode score event", "error", err)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Record folds one score event into the running statistics.
func (a *Aggregator) Record(event proto.ScoreEvent) {
	a.totalScored.Add(1)
	if event.SEOScore < healthyThreshold {
		a.belowSEO.Add(1)
	}
	if event.AEOScore < healthyThreshold {
		a.belowAEO.Add(1)
	}

	a.mu.Lock()
	a.seoSum += int64(event.SEOScore)
	a.aeoSum += int64(event.AEOScore)
	a.seoScores = append(a.seoScores, event.SEOScore)
	a.latencies = append(a.latencies, event.LatencyMs)
	a.latest[event.DocumentID] = ArticleScore{
		DocumentID: event.DocumentID,
		SEOScore:   event.SEOScore,
		AEOScore:   event.AEOScore,
	}
	a.mu.Unlock()
}

// Report snapshots the current corpus statistics.
func (a *Aggregator) Report() CorpusReport {
	a.mu.RLock()
	defer a.mu.RUnlock()

	report := CorpusReport{
		TotalScored: a.totalScored.Load(),
		BelowSEO:    a.belowSEO.Load(),
		BelowAEO:    a.belowAEO.Load(),
	}
	if n := len(a.seoScores); n > 0 {
		report.AvgSEOScore = float64(a.seoSum) / float64(n)
		report.AvgAEOScore = float64(a.aeoSum) / float64(n)

		sorted := make([]int, n)
		copy(sorted, a.seoScores)
		sort.Ints(sorted)
		report.P50SEOScore = sorted[n/2]
	}
	if n := len(a.latencies); n > 0 {
		sorted := make([]int64, n)
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		idx := (95 * n) / 100
		if idx >= n {
			idx = n - 1
		}
		report.P95LatencyMs = sorted[idx]
	}
	report.WorstArticles = a.worstN(10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		report.ScoresPerMinute = float64(report.TotalScored) / elapsed
	}
	return report
}

// worstN returns the n lowest-scoring documents by SEO score. Caller holds
// at least a read lock.
func (a *Aggregator) worstN(n int) []ArticleScore {
	all := make([]ArticleScore, 0, len(a.latest))
	for _, s := range a.latest {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SEOScore != all[j].SEOScore {
			return all[i].SEOScore < all[j].SEOScore
		}
		return all[i].DocumentID < all[j].DocumentID
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
