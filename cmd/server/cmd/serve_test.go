package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Togather-Foundation/mozdef-proxy/internal/config"
)

func TestServeCommandHelp(t *testing.T) {
	cmd := newServeCommand(nil)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, expected := range []string{"Start the event proxy and begin accepting events", "--host", "--port", "--backend"} {
		assert.Contains(t, buf.String(), expected)
	}
	assert.Equal(t, "Start the event proxy HTTP server", cmd.Short)
}

func TestServeOptions_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "sqs")
	t.Setenv("SQS_QUEUE_URL", "")
	t.Setenv("SERVER_PORT", "8080")

	opts := &serveOptions{
		globalOptions: &globalOptions{logLevel: "debug"},
		port:          9999,
		backend:       " LOG ",
	}
	cfg, err := opts.loadConfig()
	require.NoError(t, err, "sqs without a queue URL is fine once the flag selects log")

	assert.Equal(t, config.BackendLog, cfg.Queue.Backend)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestServeOptions_InvalidAfterOverrides(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "log")

	opts := &serveOptions{globalOptions: &globalOptions{}, backend: "sqs"}
	t.Setenv("SQS_QUEUE_URL", "")

	_, err := opts.loadConfig()
	assert.ErrorContains(t, err, "SQS_QUEUE_URL")
}

func TestServe_LogBackendEndToEnd(t *testing.T) {
	cfg := config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1"},
		Events:  config.EventsConfig{Source: "mozdef-proxy"},
		Queue:   config.QueueConfig{Backend: config.BackendLog},
		Tracing: config.TracingConfig{Enabled: false},
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	var logs bytes.Buffer
	logger := zerolog.New(&syncWriter{w: &logs})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, logger, ln) }()

	event := `{"category":"c","hostname":"h","severity":"INFO","process":"p","summary":"s","details":{"k":"v"}}`
	resp, err := http.Post(base+"/events", "application/json", strings.NewReader(event))
	require.NoError(t, err)
	text, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Success", string(text))

	resp, err = http.Post(base+"/events", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Contains(t, logs.String(), `"summary":"s"`)
	assert.Contains(t, logs.String(), "server stopped")
}
