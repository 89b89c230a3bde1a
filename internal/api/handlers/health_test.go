package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	poisoned bool
}

func (f *fakeBackend) Poisoned() bool { return f.poisoned }

func readyz(t *testing.T, h *HealthChecker) (int, HealthCheck) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body HealthCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	h := NewHealthChecker(nil, "log", "0.1.0", "abc")

	rec := httptest.NewRecorder()
	h.Healthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz_Ready(t *testing.T) {
	h := NewHealthChecker(&fakeBackend{}, "sqs", "0.1.0", "abc")
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	code, body := readyz(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "0.1.0", body.Version)
	assert.Equal(t, "2026-01-02T03:04:05Z", body.Timestamp)
	assert.Equal(t, "pass", body.Checks["queue_backend"].Status)
	assert.Equal(t, "sqs", body.Checks["queue_backend"].Details["backend"])
}

func TestReadyz_OmitsQueueAddress(t *testing.T) {
	h := NewHealthChecker(&fakeBackend{poisoned: true}, "sqs", "0.1.0", "abc")

	rec := httptest.NewRecorder()
	h.Readyz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var body HealthCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]any{
		"backend":     "sqs",
		"remediation": "Restart the process; the backend client state is no longer trusted",
	}, body.Checks["queue_backend"].Details)
	assert.NotContains(t, rec.Body.String(), "address")
}

func TestReadyz_ShuttingDown(t *testing.T) {
	h := NewHealthChecker(&fakeBackend{}, "sqs", "0.1.0", "abc")
	h.SetShuttingDown()

	code, body := readyz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "fail", body.Checks["shutdown"].Status)
}

func TestReadyz_PoisonedBackend(t *testing.T) {
	h := NewHealthChecker(&fakeBackend{poisoned: true}, "kafka", "0.1.0", "abc")

	code, body := readyz(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "fail", body.Checks["queue_backend"].Status)
	assert.Equal(t, "pass", body.Checks["shutdown"].Status)
}
