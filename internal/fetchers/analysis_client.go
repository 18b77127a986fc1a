package fetchers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"windscope/internal/logger"
	"windscope/internal/models"
)

const (
	analyzeSamplePath = "/api/v1/analyze-sample"
	healthPath        = "/api/v1/health"
)

// ErrBackend is returned when the analysis backend answers with an error status
var ErrBackend = errors.New("analysis backend error")

// AnalysisClient talks to the SCADA analysis backend
type AnalysisClient struct {
	client *resty.Client
	log    *logger.Logger
}

// ClientOption configures an AnalysisClient
type ClientOption func(*resty.Client)

// WithTimeout bounds a single request; the analysis of a sample dataset can take tens of seconds
func WithTimeout(d time.Duration) ClientOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetry sets how often and how long to wait before retrying a failed request
func WithRetry(count int, wait time.Duration) ClientOption {
	return func(c *resty.Client) {
		c.SetRetryCount(count)
		c.SetRetryWaitTime(wait)
		c.SetRetryMaxWaitTime(4 * wait)
	}
}

// NewAnalysisClient creates a client for the backend at baseURL
func NewAnalysisClient(baseURL string, opts ...ClientOption) *AnalysisClient {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Accept", "application/json")
	client.SetTimeout(120 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(2 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})
	for _, opt := range opts {
		opt(client)
	}
	return &AnalysisClient{
		client: client,
		log:    logger.GetGlobalLogger().WithComponent("fetchers"),
	}
}

// FetchSample asks the backend to generate its sample SCADA data and analyze it
func (a *AnalysisClient) FetchSample(ctx context.Context, ratedPowerKW float64) (*models.AnalysisResult, error) {
	start := time.Now()
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("rated_power_kw", strconv.FormatFloat(ratedPowerKW, 'f', -1, 64)).
		Post(analyzeSamplePath)
	if err != nil {
		return nil, fmt.Errorf("failed to request sample analysis: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrBackend, resp.StatusCode(), errorDetail(resp.Body()))
	}

	result, err := models.DecodeAnalysisResult(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample analysis: %w", err)
	}
	if result.RatedPowerKW == 0 {
		result.RatedPowerKW = ratedPowerKW
	}

	a.log.Info("Fetched sample analysis", map[string]interface{}{
		"rated_power_kw": ratedPowerKW,
		"duration_ms":    time.Since(start).Milliseconds(),
		"time_series":    result.TimeSeries.Len(),
		"wind_rose":      len(result.WindRose),
	})
	return result, nil
}

// Health checks that the backend is reachable
func (a *AnalysisClient) Health(ctx context.Context) error {
	resp, err := a.client.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		return fmt.Errorf("failed to reach analysis backend: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: health returned status %d", ErrBackend, resp.StatusCode())
	}
	return nil
}

// errorDetail extracts the FastAPI style {"detail": ...} message, falling back to the raw body
func errorDetail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		return fmt.Sprint(payload.Detail)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
