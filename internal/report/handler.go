package report

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves the live corpus report maintained by an Aggregator.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "report-handler"),
	}
}

// Report writes the current corpus report as JSON.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report := h.aggregator.Report()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("failed to write report response", "error", err)
	}
}
