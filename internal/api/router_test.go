package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/mozdef-proxy/internal/api/handlers"
	"github.com/Togather-Foundation/mozdef-proxy/internal/config"
	"github.com/Togather-Foundation/mozdef-proxy/internal/domain/events"
	"github.com/Togather-Foundation/mozdef-proxy/internal/proxy"
	"github.com/Togather-Foundation/mozdef-proxy/internal/queue"
	"github.com/Togather-Foundation/mozdef-proxy/internal/queue/queuetest"
)

const body = `{"category":"c","hostname":"h","severity":"INFO","process":"p","summary":"s","details":{}}`

type fixture struct {
	server   *httptest.Server
	recorder *queuetest.Recorder
	shared   *queue.Shared[queue.Enqueue[events.OutboundEvent]]
	health   *handlers.HealthChecker
}

func newFixture(t *testing.T, cfg config.Config, ingest http.Handler) *fixture {
	t.Helper()
	recorder := queuetest.NewRecorder("events")
	shared := queue.NewShared[queue.Enqueue[events.OutboundEvent]](queue.New[events.OutboundEvent](recorder))
	if ingest == nil {
		ingest = proxy.New(shared, events.NewNormalizer(""))
	}
	health := handlers.NewHealthChecker(shared, recorder.Name(), "test", "none")

	router, stop := NewRouter(cfg, zerolog.Nop(), ingest, health)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		stop()
	})
	return &fixture{server: server, recorder: recorder, shared: shared, health: health}
}

func (f *fixture) do(t *testing.T, method, path, payload string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(payload))
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestRouter_IngestRoutes(t *testing.T) {
	f := newFixture(t, config.Config{}, nil)

	for _, path := range IngestPaths {
		resp, text := f.do(t, http.MethodPost, path, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "Success", text)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	}
	assert.Len(t, f.recorder.Messages(), len(IngestPaths))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, config.Config{}, nil)

	resp, _ := f.do(t, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, 0, f.recorder.Calls())
}

func TestRouter_OversizedBody(t *testing.T) {
	f := newFixture(t, config.Config{}, nil)

	huge := `{"category":"` + strings.Repeat("a", 1<<20) + `"}`
	resp, text := f.do(t, http.MethodPost, "/events", huge)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request data", text)
	assert.Equal(t, 0, f.recorder.Calls())
}

func TestRouter_PanicIsRecovered(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler bug")
	})
	f := newFixture(t, config.Config{}, boom)

	resp, _ := f.do(t, http.MethodPost, "/events", body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RateLimit(t *testing.T) {
	f := newFixture(t, config.Config{RateLimit: config.RateLimitConfig{PerMinute: 2}}, nil)

	for i := 0; i < 2; i++ {
		resp, _ := f.do(t, http.MethodPost, "/events", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := f.do(t, http.MethodPost, "/events", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "probes are not rate limited")
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	f := newFixture(t, config.Config{}, nil)

	resp, text := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, text)

	resp, _ = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, _ = f.do(t, http.MethodPost, "/events", body)
	resp, text = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, text, `mozdef_proxy_events_total{outcome="forwarded"}`)
	assert.Contains(t, text, `mozdef_proxy_http_requests_total{method="POST",path="/events",status="200"}`)

	f.health.SetShuttingDown()
	resp, _ = f.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
