package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stockresearch/backend/internal/config"
	"github.com/stockresearch/backend/internal/errors"
)

type fakeProber struct {
	mu  sync.Mutex
	err error
}

func (f *fakeProber) Probe(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeProber) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestServer(t *testing.T, prober DatabaseProber) *APIServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAPIServer(&config.APIConfig{Port: 8000}, prober, logger)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestHandleHealth_DatabaseHealthy(t *testing.T) {
	server := newTestServer(t, &fakeProber{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Database != "healthy" {
		t.Errorf("expected database healthy, got %q", resp.Database)
	}
}

func TestHandleHealth_DatabaseUnhealthy(t *testing.T) {
	prober := &fakeProber{}
	prober.setErr(errors.NewTransientf("dial tcp: connection refused"))
	server := newTestServer(t, prober)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	// Probe failure is reported in the body, never as a non-200.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 even with database down, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Database != "unhealthy" {
		t.Errorf("expected database unhealthy, got %q", resp.Database)
	}
}

func TestHandleHealth_Recovers(t *testing.T) {
	prober := &fakeProber{}
	prober.setErr(errors.NewTransientf("connection refused"))
	server := newTestServer(t, prober)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Database != "unhealthy" {
		t.Fatalf("expected unhealthy before recovery, got %q", resp.Database)
	}

	prober.setErr(nil)

	w = httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Database != "healthy" {
		t.Errorf("expected healthy after recovery, got %q", resp.Database)
	}
}

func TestHandleHealth_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t, &fakeProber{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", w.Code)
	}
}

func TestHandleHealth_Concurrent(t *testing.T) {
	server := newTestServer(t, &fakeProber{})

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			w := httptest.NewRecorder()
			server.router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", w.Code)
			}
		}()
	}
	wg.Wait()
}
