package bls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialDelay:    time.Millisecond,
			MaxDelay:        5 * time.Millisecond,
			BackoffMultiple: 2.0,
		},
	}
	return NewClient(cfg, NopLimiter{}, opts...)
}

func seriesEnvelope(seriesIDs ...string) map[string]any {
	series := make([]map[string]any, 0, len(seriesIDs))
	for _, id := range seriesIDs {
		series = append(series, map[string]any{
			"seriesID": id,
			"data": []map[string]any{
				{"year": "2023", "period": "M01", "value": "1.5"},
			},
		})
	}
	return map[string]any{
		"status":  "REQUEST_SUCCEEDED",
		"message": []string{},
		"Results": map[string]any{"series": series},
	}
}

func TestFetchSeriesBatch_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req seriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.RegistrationKey != "test-key" {
			t.Errorf("Expected registration key in body, got %q", req.RegistrationKey)
		}
		if !req.Catalog {
			t.Error("Expected catalog=true in request")
		}
		json.NewEncoder(w).Encode(seriesEnvelope(req.SeriesID...))
	})

	records, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0", "LNS14000000"}, 2005, 2024)
	if err != nil {
		t.Fatalf("FetchSeriesBatch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].SeriesID != "CUUR0000SA0" {
		t.Errorf("Unexpected series ID: %s", records[0].SeriesID)
	}
}

func TestFetchSeriesBatch_TooManySeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Server should not be called")
	})

	ids := make([]string, MaxSeriesPerRequest+1)
	for i := range ids {
		ids[i] = "X"
	}

	if _, err := client.FetchSeriesBatch(context.Background(), ids, 2005, 2024); err == nil {
		t.Fatal("Expected error for oversized batch")
	}
}

func TestFetchSeriesBatch_SplitsWideYearRange(t *testing.T) {
	var ranges [][2]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req seriesRequest
		json.NewDecoder(r.Body).Decode(&req)
		ranges = append(ranges, [2]string{req.StartYear, req.EndYear})
		json.NewEncoder(w).Encode(seriesEnvelope("CUUR0000SA0"))
	})

	// 1990..2024 = 35 years, needs two requests
	records, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0"}, 1990, 2024)
	if err != nil {
		t.Fatalf("FetchSeriesBatch failed: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 sub-range requests, got %d", len(ranges))
	}
	if ranges[0] != [2]string{"1990", "2009"} {
		t.Errorf("Unexpected first range: %v", ranges[0])
	}
	if ranges[1] != [2]string{"2010", "2024"} {
		t.Errorf("Unexpected second range: %v", ranges[1])
	}
	if len(records) != 2 {
		t.Errorf("Expected concatenated results from both ranges, got %d", len(records))
	}
}

func TestFetchSeriesBatch_RetriesOn429(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(seriesEnvelope("CUUR0000SA0"))
	})

	records, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0"}, 2010, 2024)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestFetchSeriesBatch_UpstreamRejected(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "REQUEST_FAILED",
			"message": "invalid series id",
		})
	})

	_, err := client.FetchSeriesBatch(context.Background(), []string{"BOGUS"}, 2010, 2024)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != "REQUEST_FAILED" {
		t.Errorf("Unexpected status: %s", apiErr.Status)
	}
	if calls != 1 {
		t.Errorf("Rejection must not be retried, got %d calls", calls)
	}
}

func TestFetchSeriesBatch_QuotaExhausted(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "REQUEST_NOT_PROCESSED",
			"message": []string{"Request could not be serviced, as the daily threshold for total queries allocated to the user has been reached."},
		})
	})

	_, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0"}, 2010, 2024)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("Expected ErrQuotaExhausted, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Quota exhaustion must not be retried, got %d calls", calls)
	}
}

func TestFetchSeriesBatch_LocalBudget(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(seriesEnvelope("CUUR0000SA0"))
	}, WithBudget(NewBudget(1)))

	if _, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0"}, 2010, 2024); err != nil {
		t.Fatalf("First call should succeed: %v", err)
	}

	_, err := client.FetchSeriesBatch(context.Background(), []string{"CUUR0000SA0"}, 2010, 2024)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("Expected ErrQuotaExhausted from local budget, got %v", err)
	}
}

func TestGetPopularSeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("survey") != "LN" {
			t.Errorf("Expected survey=LN, got %q", r.URL.Query().Get("survey"))
		}
		if r.URL.Query().Get("registrationkey") != "test-key" {
			t.Error("Expected registration key in query")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "REQUEST_SUCCEEDED",
			"Results": map[string]any{
				"series": []map[string]any{
					{"seriesID": "LNS14000000"},
					{"seriesID": ""},
				},
			},
		})
	})

	popular, err := client.GetPopularSeries(context.Background(), "LN")
	if err != nil {
		t.Fatalf("GetPopularSeries failed: %v", err)
	}
	if len(popular) != 1 || popular[0].SeriesID != "LNS14000000" {
		t.Errorf("Unexpected popular series: %+v", popular)
	}
}

type mapCache struct {
	entries map[string][]byte
	sets    int
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	body, ok := c.entries[key]
	return body, ok
}

func (c *mapCache) Set(_ context.Context, key string, body []byte) {
	c.sets++
	c.entries[key] = body
}

func TestGetSurveys_Cached(t *testing.T) {
	var calls int32
	cache := &mapCache{entries: make(map[string][]byte)}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "REQUEST_SUCCEEDED",
			"Results": map[string]any{
				"survey": []map[string]any{
					{"survey_abbreviation": "LN", "survey_name": "Labor Force Statistics"},
				},
			},
		})
	}, WithCache(cache))

	for i := 0; i < 2; i++ {
		surveys, err := client.GetSurveys(context.Background())
		if err != nil {
			t.Fatalf("GetSurveys failed: %v", err)
		}
		if len(surveys) != 1 || surveys[0].Abbreviation != "LN" {
			t.Errorf("Unexpected surveys: %+v", surveys)
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 upstream call with cache, got %d", calls)
	}
	if cache.sets != 1 {
		t.Errorf("Expected 1 cache write, got %d", cache.sets)
	}
}

func TestMessageText_StringOrArray(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"string", `{"message": "plain"}`, "plain"},
		{"array", `{"message": ["first", "second"]}`, "first"},
		{"empty array", `{"message": []}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var env envelope
			if err := json.Unmarshal([]byte(tc.in), &env); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if string(env.Message) != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, env.Message)
			}
		})
	}
}
