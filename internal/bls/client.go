// Package bls is the client for the Bureau of Labor Statistics public API v2.
//
// All calls share one process-wide rate limiter and one daily budget; the
// limiter suspends the caller until capacity frees rather than failing.
// Short-window rate limits (HTTP 429) are retried with exponential backoff;
// daily-threshold replies surface as ErrQuotaExhausted and are never retried.
package bls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/metrics"
)

const (
	timeseriesPath = "/publicAPI/v2/timeseries/data/"
	popularPath    = "/publicAPI/v2/timeseries/popular"
	surveysPath    = "/publicAPI/v2/surveys"

	// MaxSeriesPerRequest is the upstream hard limit for registered keys.
	MaxSeriesPerRequest = 50

	// MaxYearsPerRequest is the widest year window one request may cover.
	MaxYearsPerRequest = 20

	statusSucceeded    = "REQUEST_SUCCEEDED"
	statusFailed       = "REQUEST_FAILED"
	statusNotProcessed = "REQUEST_NOT_PROCESSED"
)

// Limiter suspends a caller until an upstream call is allowed. Tests
// substitute a no-op implementation.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter returns a limiter allowing calls evenly spread over period,
// with a burst of the full window allowance.
func NewLimiter(calls int, period time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(period/time.Duration(calls)), calls)
}

// GetCache caches raw GET responses. Used for the popular-series and
// surveys endpoints, whose payloads rarely change.
type GetCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// Config holds client construction parameters.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   RetryConfig
}

// Client calls the BLS public API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    Limiter
	budget     *Budget
	retry      RetryConfig
	cache      GetCache
}

// Option customizes a Client.
type Option func(*Client)

// WithCache attaches a GET response cache.
func WithCache(cache GetCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithBudget attaches a local daily call budget.
func WithBudget(budget *Budget) Option {
	return func(c *Client) { c.budget = budget }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client. The limiter must be the single shared
// instance for the process.
func NewClient(cfg Config, limiter Limiter, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.bls.gov"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    limiter,
		retry:      cfg.Retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// messageText decodes the envelope's message field, which the API returns
// as either a string or an array of strings.
type messageText string

func (m *messageText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = messageText(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*m = messageText(list[0])
	}
	return nil
}

type envelope struct {
	Status  string      `json:"status"`
	Message messageText `json:"message"`
	Results struct {
		Series []domain.SeriesRecord `json:"series"`
		Survey []domain.Survey       `json:"survey"`
	} `json:"Results"`
}

// checkEnvelope maps the API's own status field and message text onto the
// error taxonomy. Quota detection runs first so an exhausted key is never
// mistaken for a generic rejection.
func checkEnvelope(env *envelope) error {
	if isQuotaMessage(string(env.Message)) {
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, env.Message)
	}
	if env.Status == statusFailed || env.Status == statusNotProcessed {
		return &APIError{Status: env.Status, Message: string(env.Message)}
	}
	return nil
}

type seriesRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey"`
	Catalog         bool     `json:"catalog"`
}

// FetchSeriesBatch fetches data for up to MaxSeriesPerRequest series with
// catalog metadata. Year windows wider than MaxYearsPerRequest are split
// into sequential sub-range requests and the results concatenated.
func (c *Client) FetchSeriesBatch(
	ctx context.Context,
	seriesIDs []string,
	startYear, endYear int,
) ([]domain.SeriesRecord, error) {
	if len(seriesIDs) == 0 {
		return nil, nil
	}
	if len(seriesIDs) > MaxSeriesPerRequest {
		return nil, fmt.Errorf("bls: batch of %d exceeds %d series per request",
			len(seriesIDs), MaxSeriesPerRequest)
	}
	if startYear > endYear {
		return nil, fmt.Errorf("bls: start year %d after end year %d", startYear, endYear)
	}

	var all []domain.SeriesRecord
	for from := startYear; from <= endYear; from += MaxYearsPerRequest {
		to := from + MaxYearsPerRequest - 1
		if to > endYear {
			to = endYear
		}

		records, err := c.fetchSeriesRange(ctx, seriesIDs, from, to)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (c *Client) fetchSeriesRange(
	ctx context.Context,
	seriesIDs []string,
	startYear, endYear int,
) ([]domain.SeriesRecord, error) {
	body, err := json.Marshal(seriesRequest{
		SeriesID:        seriesIDs,
		StartYear:       fmt.Sprintf("%d", startYear),
		EndYear:         fmt.Sprintf("%d", endYear),
		RegistrationKey: c.apiKey,
		Catalog:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("bls: encode request: %w", err)
	}

	var env envelope
	err = doWithRetry(ctx, c.retry, func() error {
		raw, err := c.do(ctx, http.MethodPost, c.baseURL+timeseriesPath, body, "timeseries")
		if err != nil {
			return err
		}
		env = envelope{}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("bls: decode response: %w", err)
		}
		return checkEnvelope(&env)
	})
	if err != nil {
		return nil, err
	}

	return env.Results.Series, nil
}

// GetPopularSeries fetches popular series, optionally scoped to one survey.
func (c *Client) GetPopularSeries(ctx context.Context, survey string) ([]domain.PopularSeries, error) {
	u := c.baseURL + popularPath
	cacheKey := "popular"
	params := url.Values{}
	if survey != "" {
		params.Set("survey", survey)
		cacheKey = "popular:" + survey
	}

	env, err := c.getEnvelope(ctx, u, params, cacheKey, "popular")
	if err != nil {
		return nil, err
	}

	popular := make([]domain.PopularSeries, 0, len(env.Results.Series))
	for _, s := range env.Results.Series {
		if s.SeriesID != "" {
			popular = append(popular, domain.PopularSeries{SeriesID: s.SeriesID})
		}
	}
	return popular, nil
}

// GetSurveys fetches the list of all data-collection programs.
func (c *Client) GetSurveys(ctx context.Context) ([]domain.Survey, error) {
	env, err := c.getEnvelope(ctx, c.baseURL+surveysPath, url.Values{}, "surveys", "surveys")
	if err != nil {
		return nil, err
	}
	return env.Results.Survey, nil
}

// getEnvelope performs a cached, rate-limited GET. The registration key is
// appended after the cache lookup so it never becomes part of a cache key.
func (c *Client) getEnvelope(
	ctx context.Context,
	endpoint string,
	params url.Values,
	cacheKey, metricName string,
) (*envelope, error) {
	var raw []byte
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, cacheKey); ok {
			var env envelope
			if err := json.Unmarshal(cached, &env); err == nil {
				return &env, nil
			}
		}
	}

	params.Set("registrationkey", c.apiKey)
	target := endpoint + "?" + params.Encode()

	var env envelope
	err := doWithRetry(ctx, c.retry, func() error {
		body, err := c.do(ctx, http.MethodGet, target, nil, metricName)
		if err != nil {
			return err
		}
		env = envelope{}
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("bls: decode response: %w", err)
		}
		if err := checkEnvelope(&env); err != nil {
			return err
		}
		raw = body
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil && raw != nil {
		c.cache.Set(ctx, cacheKey, raw)
	}
	return &env, nil
}

// do issues one HTTP request under the shared limiter and budget.
func (c *Client) do(
	ctx context.Context,
	method, target string,
	body []byte,
	metricName string,
) ([]byte, error) {
	if !c.budget.Spend() {
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "quota").Inc()
		return nil, fmt.Errorf("%w: local daily budget spent", ErrQuotaExhausted)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("bls: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	metrics.UpstreamCallsTotal.WithLabelValues(metricName).Inc()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "network").Inc()
		return nil, fmt.Errorf("%w: read body: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "rate_limited").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "server").Inc()
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		metrics.UpstreamErrorsTotal.WithLabelValues(metricName, "http").Inc()
		return nil, fmt.Errorf("bls: unexpected status %d", resp.StatusCode)
	}

	return data, nil
}

// NopLimiter never blocks. Intended for tests.
type NopLimiter struct{}

// Wait implements Limiter.
func (NopLimiter) Wait(context.Context) error { return nil }
