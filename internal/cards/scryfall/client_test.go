package scryfall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Options{
		BaseURL:        serverURL,
		RateLimitDelay: time.Millisecond,
		InitialBackoff: time.Millisecond,
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Options{})

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("Expected user agent %s, got %s", DefaultUserAgent, client.userAgent)
	}
	if client.maxRetries != defaultMaxRetries {
		t.Errorf("Expected %d retries, got %d", defaultMaxRetries, client.maxRetries)
	}
}

func TestClient_RateLimiting(t *testing.T) {
	var requestCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":0,"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, RateLimitDelay: 50 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Autocomplete(ctx, "sol"); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	if requestCount.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount.Load())
	}

	// Two waits of 50ms between three requests.
	minDuration := 100 * time.Millisecond
	if elapsed < minDuration {
		t.Errorf("Rate limiting not working: completed 3 requests in %v (expected >= %v)", elapsed, minDuration)
	}
}

func TestClient_NotFoundError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","code":"not_found","status":404,"details":"No card found"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Autocomplete(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected wrapped NotFoundError, got %T: %v", err, err)
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":1,"data":["Sol Ring"]}`))
	}))
	defer server.Close()

	names, err := newTestClient(server.URL).Autocomplete(context.Background(), "sol")
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if len(names) != 1 || names[0] != "Sol Ring" {
		t.Errorf("Expected [Sol Ring], got %v", names)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestClient_ServerErrorRetriedThenReported(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"object":"error","code":"unavailable","status":503,"details":"down for maintenance"}`))
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:        server.URL,
		RateLimitDelay: time.Millisecond,
		InitialBackoff: time.Millisecond,
		MaxRetries:     2,
	})

	_, _, err := client.FetchCollection(context.Background(), []CardIdentifier{{Name: "Sol Ring"}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError in chain, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", apiErr.Status)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestClient_BadRequestNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"bad_request","status":400,"details":"bad query"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Autocomplete(context.Background(), "sol")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Autocomplete(context.Background(), "x"); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, RateLimitDelay: time.Millisecond, InitialBackoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Autocomplete(ctx, "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestClient_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/2.0" {
			t.Errorf("Expected User-Agent test-agent/2.0, got %s", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Expected Accept application/json, got %s", got)
		}
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":0,"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, UserAgent: "test-agent/2.0", RateLimitDelay: time.Millisecond})
	if _, err := client.Autocomplete(context.Background(), "sol"); err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
}

func TestClient_Autocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/autocomplete" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "atraxa praetor" {
			t.Errorf("Unexpected query %q", q)
		}
		_, _ = w.Write([]byte(`{"object":"catalog","total_values":2,"data":["Atraxa, Praetors' Voice","Atraxa, Grand Unifier"]}`))
	}))
	defer server.Close()

	names, err := newTestClient(server.URL).Autocomplete(context.Background(), "atraxa praetor")
	if err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Atraxa, Praetors' Voice" {
		t.Errorf("Unexpected names: %v", names)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with details",
			err:  &APIError{Status: 400, Code: "bad_request", Details: "Invalid query"},
			want: "Scryfall API error (HTTP 400): Invalid query",
		},
		{
			name: "without details",
			err:  &APIError{Status: 500, Code: "internal_error"},
			want: "Scryfall API error (HTTP 500): internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
