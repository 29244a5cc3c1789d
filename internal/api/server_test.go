package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aruco-worker-go/internal/config"
	"aruco-worker-go/internal/models"
)

type stubSource struct{}

func (stubSource) SourceID() string                   { return "0" }
func (stubSource) Healthy() bool                      { return true }
func (stubSource) Latest() (models.FrameResult, bool) { return models.FrameResult{}, false }
func (stubSource) Stats() models.SourceResponse {
	return models.SourceResponse{SourceID: "0", Status: models.SourceStatusRunning}
}

type stubFrames struct{}

func (stubFrames) Latest(string) ([]byte, bool) { return nil, false }

func (stubFrames) StreamMJPEGHTTP(w http.ResponseWriter, _ *http.Request, _ string) {
	w.WriteHeader(http.StatusOK)
}

func newTestServer() *Server {
	cfg := &config.Config{WorkerID: "worker-test", Version: "2.0.0", Port: 8000, PipelineMode: config.ModeMarkers}
	return NewServer(cfg, stubSource{}, stubFrames{}, nil)
}

func TestServerRoutes(t *testing.T) {
	h := newTestServer().Handler()

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
	}{
		{name: "worker info", method: http.MethodGet, path: "/", wantCode: http.StatusOK},
		{name: "health", method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{name: "latest before first frame", method: http.MethodGet, path: "/markers/latest", wantCode: http.StatusNotFound},
		{name: "source stats", method: http.MethodGet, path: "/system/source", wantCode: http.StatusOK},
		{name: "api info", method: http.MethodGet, path: "/api/info", wantCode: http.StatusOK},
		{name: "docs redirect", method: http.MethodGet, path: "/docs", wantCode: http.StatusMovedPermanently},
		{name: "preflight", method: http.MethodOptions, path: "/health", wantCode: http.StatusNoContent},
		{name: "unknown route", method: http.MethodGet, path: "/cameras", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.wantCode)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer().Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if id := w.Header().Get("X-Request-ID"); len(id) != 12 {
		t.Errorf("generated request id %q, want 12 chars", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if id := w.Header().Get("X-Request-ID"); id != "abc123" {
		t.Errorf("request id = %q, want the caller's", id)
	}
}

func TestSwaggerDoc(t *testing.T) {
	h := newTestServer().Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("doc.json code = %d", w.Code)
	}

	var doc struct {
		Info struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	if doc.Info.Version != "2.0.0" {
		t.Errorf("doc version = %q, want the configured version", doc.Info.Version)
	}
	for _, p := range []string{"/health", "/markers/latest", "/markers/{id}/image", "/stream"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Errorf("path %s missing from doc", p)
		}
	}
	if !strings.Contains(w.Body.String(), "models.FrameResult") {
		t.Error("FrameResult definition missing")
	}
}
