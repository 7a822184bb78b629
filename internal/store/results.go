// Package store persists health results in PostgreSQL. The scoring core
// never touches this package; persistence is the pipeline's concern.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/pagemesh/pagemesh/pkg/errors"
	"github.com/pagemesh/pagemesh/pkg/postgres"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

// StoredResult is a HealthResult row with its persistence timestamp.
type StoredResult struct {
	proto.HealthResult
	ScoredAt time.Time `json:"scored_at"`
}

// CorpusSummary aggregates stored scores for the report endpoint.
type CorpusSummary struct {
	TotalArticles int     `json:"total_articles"`
	AvgSEOScore   float64 `json:"avg_seo_score"`
	AvgAEOScore   float64 `json:"avg_aeo_score"`
	BelowSEO65    int     `json:"below_seo_65"`
	BelowAEO65    int     `json:"below_aeo_65"`
}

// Results is the PostgreSQL repository for health results.
type Results struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewResults creates a Results repository.
func NewResults(db *postgres.Client) *Results {
	return &Results{
		db:     db,
		logger: slog.Default().With("component", "results-store"),
	}
}

// Save upserts the result for a document. Rescoring a document replaces its
// previous row; history lives in the score-events topic, not here.
func (r *Results) Save(ctx context.Context, result proto.HealthResult) error {
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO health_results (document_id, seo_score, aeo_score, status, metrics, scored_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (document_id) DO UPDATE
			 SET seo_score = EXCLUDED.seo_score,
			     aeo_score = EXCLUDED.aeo_score,
			     status = EXCLUDED.status,
			     metrics = EXCLUDED.metrics,
			     scored_at = NOW()`,
			result.DocumentID, result.SEOScore, result.AEOScore, result.Status, metricsJSON,
		)
		if err != nil {
			return fmt.Errorf("upserting health result for document %d: %w", result.DocumentID, err)
		}
		return nil
	})
}

// Get returns the stored result for a document.
func (r *Results) Get(ctx context.Context, documentID int64) (*StoredResult, error) {
	var res StoredResult
	var metricsJSON []byte
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT document_id, seo_score, aeo_score, status, metrics, scored_at
		 FROM health_results WHERE document_id = $1`, documentID,
	).Scan(&res.DocumentID, &res.SEOScore, &res.AEOScore, &res.Status, &metricsJSON, &res.ScoredAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrResultNotFound, 404, "document %d", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying result for document %d: %w", documentID, err)
	}
	if err := json.Unmarshal(metricsJSON, &res.Metrics); err != nil {
		return nil, fmt.Errorf("decoding stored metrics for document %d: %w", documentID, err)
	}
	return &res, nil
}

// List returns stored results ordered by ascending SEO score, worst first,
// up to limit.
func (r *Results) List(ctx context.Context, limit, offset int) ([]StoredResult, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT document_id, seo_score, aeo_score, status, metrics, scored_at
		 FROM health_results ORDER BY seo_score ASC, document_id ASC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	results := make([]StoredResult, 0, limit)
	for rows.Next() {
		var res StoredResult
		var metricsJSON []byte
		if err := rows.Scan(&res.DocumentID, &res.SEOScore, &res.AEOScore, &res.Status, &metricsJSON, &res.ScoredAt); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if err := json.Unmarshal(metricsJSON, &res.Metrics); err != nil {
			r.logger.Error("skipping row with bad metrics JSON", "doc_id", res.DocumentID, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Summary computes corpus-level aggregates over every stored result.
func (r *Results) Summary(ctx context.Context) (*CorpusSummary, error) {
	var s CorpusSummary
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(seo_score), 0),
		        COALESCE(AVG(aeo_score), 0),
		        COUNT(*) FILTER (WHERE seo_score < 65),
		        COUNT(*) FILTER (WHERE aeo_score < 65)
		 FROM health_results`,
	).Scan(&s.TotalArticles, &s.AvgSEOScore, &s.AvgAEOScore, &s.BelowSEO65, &s.BelowAEO65)
	if err != nil {
		return nil, fmt.Errorf("computing corpus summary: %w", err)
	}
	return &s, nil
}
