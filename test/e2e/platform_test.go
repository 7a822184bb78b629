// Package e2e contains end-to-end tests that exercise the full platform
// stack: api → engine → Kafka pipeline → report, with real Kafka,
// PostgreSQL, and Redis.
//
// Prerequisites:
//   - PostgreSQL running with schema applied
//   - Kafka (with Zookeeper) running
//   - Redis running
//
// Run with:
//
//	go test -v -tags=e2e -timeout=120s ./test/e2e/...
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

type e2eConfig struct {
	APIURL      string
	AnalyzerURL string
}

func loadE2EConfig() e2eConfig {
	return e2eConfig{
		APIURL:      envOrDefault("E2E_API_URL", "http://localhost:8080"),
		AnalyzerURL: envOrDefault("E2E_ANALYZER_URL", "http://localhost:9090"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// TestPlatformHealth verifies the api service responds to health checks.
func TestPlatformHealth(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(cfg.APIURL + path)
			if err != nil {
				t.Skipf("api service unavailable: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

// TestAnalyzeAndFetchResult exercises the scoring lifecycle:
// analyze → persist → fetch stored result.
func TestAnalyzeAndFetchResult(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	if _, err := client.Get(cfg.APIURL + "/health/live"); err != nil {
		t.Skipf("api service unavailable: %v", err)
	}

	docID := time.Now().UnixNano() % 1_000_000_000
	body := strings.Repeat("end to end scoring verification text ", 300) +
		`<script type="application/ld+json">{}</script><h2>Verdict</h2>`
	payload := fmt.Sprintf(
		`{"document_id":%d,"body":%q,"modified_at":%q}`,
		docID, body, time.Now().UTC().Format(time.RFC3339),
	)

	resp, err := client.Post(cfg.APIURL+"/api/v1/analyze", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("analyze returned %d: %s", resp.StatusCode, raw)
	}

	var result struct {
		DocumentID int64 `json:"document_id"`
		SEOScore   int   `json:"seo_score"`
		AEOScore   int   `json:"aeo_score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding analyze response: %v", err)
	}
	if result.DocumentID != docID {
		t.Fatalf("DocumentID = %d, want %d", result.DocumentID, docID)
	}
	if result.SEOScore < 0 || result.SEOScore > 100 {
		t.Errorf("SEOScore = %d, out of range", result.SEOScore)
	}

	// The stored copy should match what analyze returned.
	stored, err := client.Get(fmt.Sprintf("%s/api/v1/results/%d", cfg.APIURL, docID))
	if err != nil {
		t.Fatalf("fetching stored result: %v", err)
	}
	defer stored.Body.Close()
	if stored.StatusCode == http.StatusServiceUnavailable {
		t.Skip("result storage disabled in this deployment")
	}
	if stored.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(stored.Body)
		t.Fatalf("results fetch returned %d: %s", stored.StatusCode, raw)
	}
}

// TestMeshBuildAndSanitize builds a mesh for a site, then sanitizes a
// fragment that links into and out of that mesh.
func TestMeshBuildAndSanitize(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	if _, err := client.Get(cfg.APIURL + "/health/live"); err != nil {
		t.Skipf("api service unavailable: %v", err)
	}

	site := fmt.Sprintf("e2e-site-%d", time.Now().UnixNano())
	meshPayload := fmt.Sprintf(`{"site":%q,"documents":[
		{"id":1,"title":"Best CRM Tools","slug":"best-crm-tools","url":"/best-crm-tools"},
		{"id":2,"title":"Email Guide","slug":"email-guide","url":"/email-guide"}
	]}`, site)

	resp, err := client.Post(cfg.APIURL+"/api/v1/mesh", "application/json", strings.NewReader(meshPayload))
	if err != nil {
		t.Fatalf("mesh request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("mesh returned %d: %s", resp.StatusCode, raw)
	}

	sanitizePayload := `{"html":"<a href=\"/best-crm-tools\">keep</a><a href=\"/ghost\">drop</a>",
		"nodes":[{"id":1,"url":"/best-crm-tools"},{"id":2,"url":"/email-guide"}]}`
	resp2, err := client.Post(cfg.APIURL+"/api/v1/sanitize", "application/json", strings.NewReader(sanitizePayload))
	if err != nil {
		t.Fatalf("sanitize request failed: %v", err)
	}
	defer resp2.Body.Close()

	var result struct {
		Kept    int `json:"kept"`
		Removed int `json:"removed"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&result); err != nil {
		t.Fatalf("decoding sanitize response: %v", err)
	}
	if result.Kept != 1 || result.Removed != 1 {
		t.Errorf("kept/removed = %d/%d, want 1/1", result.Kept, result.Removed)
	}
}

// TestCorpusReport checks the aggregate report endpoint responds with sane
// shape after at least one analyze call.
func TestCorpusReport(t *testing.T) {
	cfg := loadE2EConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(cfg.APIURL + "/api/v1/report")
	if err != nil {
		t.Skipf("api service unavailable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusServiceUnavailable {
		t.Skip("result storage disabled in this deployment")
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("report returned %d: %s", resp.StatusCode, raw)
	}

	var report struct {
		TotalArticles int     `json:"total_articles"`
		AvgSEOScore   float64 `json:"avg_seo_score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.TotalArticles < 0 {
		t.Errorf("TotalArticles = %d", report.TotalArticles)
	}
}
