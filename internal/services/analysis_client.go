package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"foliowatch/backend-go/internal/config"
	"foliowatch/backend-go/internal/models"
)

// UpstreamError reports a non-success response from an upstream service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("analysis api: %d", e.Status)
}

// AnalysisClient talks to the portfolio-analysis upstream that parses a raw
// uploaded document into asset records. Calls run behind a circuit breaker so
// a dead upstream fails fast instead of stacking timeouts.
type AnalysisClient struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

func NewAnalysisClient(cfg config.Config) *AnalysisClient {
	failLimit := uint32(cfg.CircuitFailLimit)
	if failLimit == 0 {
		failLimit = 3
	}
	return &AnalysisClient{
		baseURL: cfg.AnalysisBaseURL,
		hc: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		timeout: cfg.AnalysisTimeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "analysis",
			Timeout: cfg.CircuitCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failLimit
			},
		}),
	}
}

func (c *AnalysisClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("analysis health: %s", res.Status)
	}
	return nil
}

// AnalyzePortfolio submits the raw uploaded portfolio document and returns
// the parsed asset records. An upstream {error} payload surfaces as a single
// descriptive error; no retry beyond the transport-level backoff is done here.
func (c *AnalysisClient) AnalyzePortfolio(ctx context.Context, upload []byte, contentType string) (models.AnalysisResult, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.analyze(ctx, upload, contentType)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.AnalysisResult{}, errors.New("analysis circuit breaker open")
		}
		return models.AnalysisResult{}, err
	}
	return out.(models.AnalysisResult), nil
}

func (c *AnalysisClient) analyze(ctx context.Context, upload []byte, contentType string) (models.AnalysisResult, error) {
	var result models.AnalysisResult

	hc := *c.hc
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/portfolio/analyze", bytes.NewReader(upload))
		if err != nil {
			return result, err
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		req.Header.Set("Content-Type", contentType)

		res, err := hc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if res.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
			res.Body.Close()
			lastErr = &UpstreamError{Status: res.StatusCode, Body: string(body)}
			if res.StatusCode >= 400 && res.StatusCode < 500 {
				return result, lastErr
			}
			continue
		}

		err = json.NewDecoder(res.Body).Decode(&result)
		res.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if result.Error != "" {
			return result, fmt.Errorf("analysis rejected upload: %s", result.Error)
		}
		return result, nil
	}
	return result, lastErr
}
