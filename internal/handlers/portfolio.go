package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"foliowatch/backend-go/internal/models"
	"foliowatch/backend-go/internal/services"
)

// PortfolioAnalyze accepts the raw uploaded portfolio document, sends it to
// the analysis upstream and returns the aggregated snapshot. Aggregation
// always runs against the freshly parsed assets; derived metrics are never
// taken from the upload itself.
func (a *API) PortfolioAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method_not_allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	upload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload_too_large"})
		return
	}
	if len(upload) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "empty_upload"})
		return
	}

	ctx, cancel := timeboxed(r, a.cfg.AnalysisTimeout)
	defer cancel()
	result, err := a.analysis.AnalyzePortfolio(ctx, upload, r.Header.Get("Content-Type"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PortfolioResponse{
		TsISO:     nowISO(),
		Summary:   services.AggregatePortfolio(result.Results),
		Remaining: result.Remaining,
	})
}

// PortfolioSummary aggregates an asset list the caller already holds, without
// touching the analysis upstream.
func (a *API) PortfolioSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method_not_allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	var payload struct {
		Assets []models.Asset `json:"assets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_json"})
		return
	}

	writeJSON(w, http.StatusOK, models.PortfolioResponse{
		TsISO:   nowISO(),
		Summary: services.AggregatePortfolio(payload.Assets),
	})
}
