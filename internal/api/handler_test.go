package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagemesh/pagemesh/internal/engine"
	"github.com/pagemesh/pagemesh/pkg/config"
	"github.com/pagemesh/pagemesh/pkg/proto"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	eng := engine.New(config.EngineConfig{Workers: 2, QueueSize: 16}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Start(ctx)
	t.Cleanup(cancel)
	return New(eng, nil, nil, nil, nil, "https://example.com", nil)
}

func postJSON(t *testing.T, handlerFn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(AnalyzeRequest{
		DocumentID: 5,
		Body:       "<p>short article</p>",
		ModifiedAt: time.Now().AddDate(0, 0, -3),
	})
	rec := postJSON(t, h.Analyze, string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result proto.HealthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.DocumentID != 5 {
		t.Errorf("DocumentID = %d, want 5", result.DocumentID)
	}
	if result.Status != proto.StatusIdle {
		t.Errorf("Status = %q, want %q", result.Status, proto.StatusIdle)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"missing body", `{"document_id":1}`},
		{"bad id", `{"document_id":0,"body":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Analyze, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestMeshEndpoint(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(MeshRequest{
		Documents: []proto.Document{
			{ID: 1, Title: "Guide One", Slug: "guide-one", URL: "/guide-one"},
			{ID: 2, Title: "Guide Two", Slug: "guide-two", URL: "/guide-two"},
		},
	})
	rec := postJSON(t, h.BuildMesh, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp MeshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(resp.Nodes))
	}
	if resp.Nodes[0].ID != 1 {
		t.Errorf("order not preserved: %+v", resp.Nodes)
	}
}

func TestMeshValidation(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.BuildMesh, `{"documents":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRelevanceEndpoint(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(RelevanceRequest{
		Title: "CRM Pricing",
		Slug:  "crm-pricing",
		Nodes: []proto.SemanticNode{
			{ID: 1, URL: "/crm-tools", Tokens: []string{"crm", "tools"}},
			{ID: 2, URL: "/cooking", Tokens: []string{"cooking", "recipes"}},
		},
		Limit: 5,
	})
	rec := postJSON(t, h.Relevance, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp MeshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Nodes) != 1 {
		t.Fatalf("got %d nodes, want only the overlapping one: %+v", len(resp.Nodes), resp.Nodes)
	}
	if resp.Nodes[0].ID != 1 || resp.Nodes[0].Relevance <= 0 {
		t.Errorf("unexpected ranking: %+v", resp.Nodes[0])
	}
}

func TestSanitizeEndpoint(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(SanitizeRequest{
		HTML: `<a href="/known">k</a><a href="/unknown">u</a>`,
		Nodes: []proto.SemanticNode{
			{ID: 1, URL: "/known"},
		},
	})
	rec := postJSON(t, h.Sanitize, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result struct {
		HTML    string `json:"html"`
		Kept    int    `json:"kept"`
		Removed int    `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Kept != 1 || result.Removed != 1 {
		t.Errorf("kept/removed = %d/%d, want 1/1", result.Kept, result.Removed)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Normalize, `{"text":"## Title\n**bold**"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp NormalizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(resp.Text, "<h2>Title</h2>") || !strings.Contains(resp.Text, "<strong>bold</strong>") {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestDisabledDependencies(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		run  func() *httptest.ResponseRecorder
	}{
		{"results get", func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/results/1", nil)
			req.SetPathValue("id", "1")
			rec := httptest.NewRecorder()
			h.GetResult(rec, req)
			return rec
		}},
		{"results list", func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
			rec := httptest.NewRecorder()
			h.ListResults(rec, req)
			return rec
		}},
		{"report", func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
			rec := httptest.NewRecorder()
			h.Report(rec, req)
			return rec
		}},
		{"regenerate", func() *httptest.ResponseRecorder {
			return postJSON(t, h.Regenerate, `{"document_id":1,"site":"s","prompt":"p"}`)
		}},
		{"mesh get", func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/mesh?site=s", nil)
			rec := httptest.NewRecorder()
			h.GetMesh(rec, req)
			return rec
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := tt.run(); rec.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want 503", rec.Code)
			}
		})
	}
}
