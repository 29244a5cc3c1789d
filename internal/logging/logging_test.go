package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"aruco-worker-go/internal/config"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("log line is not JSON: %q", buf.String())
	}
	return m
}

func TestGinContextFields(t *testing.T) {
	buf := captureGlobal(t)

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(string(CtxRequestID), "req-42")
	c.Set(string(CtxStartTime), time.Now().Add(-time.Second))

	Info(c).Msg("handled")

	m := decode(t, buf)
	if m["request_id"] != "req-42" {
		t.Errorf("request_id = %v", m["request_id"])
	}
	if d, ok := m["duration"].(float64); !ok || d < 1000 {
		t.Errorf("duration = %v, want at least 1000ms", m["duration"])
	}
}

func TestNilGinContext(t *testing.T) {
	buf := captureGlobal(t)

	Warn(nil).Msg("no request")

	m := decode(t, buf)
	if _, ok := m["request_id"]; ok {
		t.Error("request_id set without a context")
	}
	if m["level"] != "warn" {
		t.Errorf("level = %v", m["level"])
	}
}

func TestServiceLogger(t *testing.T) {
	buf := captureGlobal(t)

	cfg := &config.Config{WorkerID: "w1"}
	logger := WithSource(NewServiceLogger(cfg, "capture"), "cam-0")
	logger.Info().Msg("opened")

	m := decode(t, buf)
	for k, want := range map[string]string{"worker_id": "w1", "service": "capture", "source_id": "cam-0"} {
		if m[k] != want {
			t.Errorf("%s = %v, want %s", k, m[k], want)
		}
	}
}
