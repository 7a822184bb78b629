package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagemesh/pagemesh/pkg/config"
	apperrors "github.com/pagemesh/pagemesh/pkg/errors"
	"github.com/pagemesh/pagemesh/pkg/metrics"
	"github.com/pagemesh/pagemesh/pkg/proto"
	"github.com/pagemesh/pagemesh/pkg/resilience"
)

// GenerateRequest is the payload sent to the generation service: the target
// document plus the mesh nodes the generated HTML may link to.
type GenerateRequest struct {
	DocumentID int64                `json:"document_id"`
	Prompt     string               `json:"prompt"`
	MeshNodes  []proto.SemanticNode `json:"mesh_nodes,omitempty"`
}

// Client calls the external generation service with bounded retry and a
// circuit breaker. Authorization failures are permanent and never retried;
// transient failures retry with increasing delay up to the configured
// attempt cap. The core scoring/meshing packages never touch this client —
// all network I/O stays out here in the shell.
type Client struct {
	httpClient *http.Client
	cfg        config.GenerationConfig
	breaker    *resilience.CircuitBreaker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a generation Client from config. A nil metrics disables
// observation.
func NewClient(cfg config.GenerationConfig, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		breaker:    resilience.NewCircuitBreaker("generation", resilience.CircuitBreakerConfig{}),
		metrics:    m,
		logger:     slog.Default().With("component", "generation-client"),
	}
}

// Generate calls the generation service and coerces the response through
// ExtractPayload. The returned article is raw generator output: callers are
// expected to run it through the normalizer and sanitizer before treating
// it as publishable.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GeneratedArticle, error) {
	retryCfg := resilience.RetryConfig{
		MaxAttempts:  c.cfg.MaxAttempts,
		InitialDelay: c.cfg.InitialDelay,
	}

	var article *GeneratedArticle
	err := resilience.Retry(ctx, "generation", retryCfg, func() error {
		return c.breaker.Execute(func() error {
			raw, err := c.doRequest(ctx, req)
			if err != nil {
				return err
			}
			article, err = ExtractPayload(raw)
			if err != nil {
				// A response that arrived but never parsed will not
				// parse on a retry either.
				return resilience.Permanent(err)
			}
			return nil
		})
	})
	c.observe(err)
	if err != nil {
		return nil, fmt.Errorf("generating document %d: %w", req.DocumentID, err)
	}
	c.logger.Info("generation completed",
		"doc_id", req.DocumentID,
		"html_size", len(article.HTML),
		"confidence", article.Confidence,
	)
	return article, nil
}

// observe records the call outcome and the breaker state.
func (c *Client) observe(err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUnauthorized):
		outcome = "unauthorized"
	case errors.Is(err, apperrors.ErrMalformedPayload):
		outcome = "malformed"
	default:
		outcome = "retryable"
	}
	c.metrics.GenerationRequests.WithLabelValues(outcome).Inc()
	c.metrics.CircuitBreakerState.WithLabelValues("generation").Set(float64(c.breaker.GetState()))
}

func (c *Client) doRequest(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", resilience.Permanent(fmt.Errorf("marshaling generate request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", resilience.Permanent(fmt.Errorf("building generate request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling generation service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading generation response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", resilience.Permanent(apperrors.Newf(apperrors.ErrUnauthorized, resp.StatusCode,
			"generation service rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode >= 400:
		return "", apperrors.Newf(apperrors.ErrGenerationFailure, resp.StatusCode,
			"generation service returned status %d", resp.StatusCode)
	}
	return string(data), nil
}
