package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foliowatch/backend-go/internal/config"
)

func testClientConfig(baseURL string) config.Config {
	return config.Config{
		AnalysisBaseURL:  baseURL,
		RequestTimeout:   2 * time.Second,
		AnalysisTimeout:  2 * time.Second,
		CircuitFailLimit: 3,
		CircuitCooldown:  time.Minute,
	}
}

func TestAnalyzePortfolio_ParsesLooseAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/portfolio/analyze", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"symbol": "AAPL", "holdings": "10", "currentPrice": 150.5, "CI": null, "sector": "Tech"},
				{"symbol": "MSFT", "holdings": 2, "currentPrice": "oops", "CI": 700}
			],
			"remaining": 3
		}`))
	}))
	defer srv.Close()

	c := NewAnalysisClient(testClientConfig(srv.URL))
	result, err := c.AnalyzePortfolio(context.Background(), []byte("raw-upload"), "text/csv")
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.Equal(t, 10.0, float64(result.Results[0].Holdings))
	assert.Equal(t, 150.5, float64(result.Results[0].CurrentPrice))
	assert.Equal(t, 0.0, float64(result.Results[0].CostInvested))
	assert.Equal(t, 0.0, float64(result.Results[1].CurrentPrice))
	require.NotNil(t, result.Remaining)
	assert.Equal(t, 3, *result.Remaining)
}

func TestAnalyzePortfolio_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "unsupported file format"}`))
	}))
	defer srv.Close()

	c := NewAnalysisClient(testClientConfig(srv.URL))
	_, err := c.AnalyzePortfolio(context.Background(), []byte("raw"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestAnalyzePortfolio_ClientErrorNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad upload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewAnalysisClient(testClientConfig(srv.URL))
	_, err := c.AnalyzePortfolio(context.Background(), []byte("raw"), "")
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnprocessableEntity, upErr.Status)
	assert.Equal(t, 1, calls)
}

func TestAnalyzePortfolio_ServerErrorRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "flaky", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAnalysisClient(testClientConfig(srv.URL))
	_, err := c.AnalyzePortfolio(context.Background(), []byte("raw"), "")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestAnalyzePortfolio_BreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL)
	cfg.CircuitFailLimit = 1
	c := NewAnalysisClient(cfg)

	_, err := c.AnalyzePortfolio(context.Background(), []byte("raw"), "")
	require.Error(t, err)

	_, err = c.AnalyzePortfolio(context.Background(), []byte("raw"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}
