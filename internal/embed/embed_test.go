package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected unit vector %v", v)
	}
	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should stay zero, got %v", zero)
	}
}

func TestDot(t *testing.T) {
	got, err := Dot([]float32{1, 0}, []float32{0.5, 0.5})
	if err != nil || got != 0.5 {
		t.Errorf("Dot = %v, %v", got, err)
	}
	if _, err := Dot([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestHashEmbedder(t *testing.T) {
	h := NewHash(64)
	ctx := context.Background()

	a, err := h.Embed(ctx, "graph neural networks for drug discovery")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 dims, got %d", len(a))
	}
	again, _ := h.Embed(ctx, "graph neural networks for drug discovery")
	for i := range a {
		if a[i] != again[i] {
			t.Fatal("embedding is not deterministic")
		}
	}

	self, _ := Dot(a, a)
	if math.Abs(self-1) > 1e-5 {
		t.Errorf("expected unit norm, got %v", self)
	}

	near, _ := h.Embed(ctx, "Drug discovery with graph neural networks")
	far, _ := h.Embed(ctx, "medieval castle architecture tour")
	simNear, _ := Dot(a, near)
	simFar, _ := Dot(a, far)
	if simNear <= simFar {
		t.Errorf("expected shared vocabulary to score higher: near=%v far=%v", simNear, simFar)
	}

	if _, err := h.Embed(ctx, "  ... "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Hello, World! नमस्ते दुनिया")
	want := []string{"hello", "world", "नमस्ते", "दुनिया"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func embeddingServer(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		if n <= failures {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Input) != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[3,4]}],"model":"test-model"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, stats *Stats) *OpenAIEmbedder {
	return NewOpenAI(OpenAIConfig{
		BaseURL:    url + "/v1",
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, stats, nil)
}

func TestOpenAIEmbedder_RetriesRateLimit(t *testing.T) {
	srv, calls := embeddingServer(t, 2, http.StatusTooManyRequests)
	stats := NewStats(time.Hour)
	e := newTestClient(srv.URL, stats)
	defer e.Close()

	v, err := e.Embed(context.Background(), "query text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected normalized vector, got %v", v)
	}
	if snap := stats.Snapshot(); snap.Count != 3 || snap.Errors != 0 {
		t.Errorf("unexpected stats %+v", snap)
	}
}

func TestOpenAIEmbedder_NonRetryableFails(t *testing.T) {
	srv, calls := embeddingServer(t, 10, http.StatusBadRequest)
	stats := NewStats(time.Hour)
	e := newTestClient(srv.URL, stats)

	_, err := e.Embed(context.Background(), "query text")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Errorf("400 should not be retryable: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
	if stats.Snapshot().Errors != 1 {
		t.Error("expected error to be counted")
	}
}

func TestOpenAIEmbedder_GivesUp(t *testing.T) {
	srv, calls := embeddingServer(t, 10, http.StatusServiceUnavailable)
	e := newTestClient(srv.URL, nil)

	_, err := e.Embed(context.Background(), "query text")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error after exhausting retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	e := newTestClient("http://127.0.0.1:1", nil)
	if _, err := e.Embed(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(ms)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 || snap.P50Ms != 300 {
		t.Fatalf("expected avg=p50=300, got %f %f", snap.AvgMs, snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(100)
	stats.RecordError()
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 || snap.Errors != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record(-10)
	snap = stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestStatsNilSafe(t *testing.T) {
	var s *Stats
	s.Record(5)
	s.RecordError()
	if s.Snapshot().Count != 0 {
		t.Error("nil stats should report nothing")
	}
}
