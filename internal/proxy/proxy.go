// Package proxy is the HTTP handler that accepts client events, normalizes
// them and hands them to an enqueue capability.
package proxy

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/mozdef-proxy/internal/capability"
	"github.com/Togather-Foundation/mozdef-proxy/internal/domain/events"
	"github.com/Togather-Foundation/mozdef-proxy/internal/metrics"
	"github.com/Togather-Foundation/mozdef-proxy/internal/queue"
)

// Response bodies. Nothing else is ever written to a client.
const (
	MessageSuccess        = "Success"
	MessageInvalidRequest = "Invalid request data"
	MessageServerError    = "An error occurred in the server"
)

// Error kinds logged with failed requests.
const (
	kindInvalid = "invalid_request"
	kindEncode  = "encode"
	kindBackend = "backend"
	kindGuard   = "guard"
)

// Enqueuer is the capability the handler forwards normalized events through.
type Enqueuer = capability.Capability[queue.Enqueue[events.OutboundEvent]]

// Handler accepts one event per POST and enqueues it.
type Handler struct {
	queue          Enqueuer
	normalizer     *events.Normalizer
	failureMessage string
	backendLabel   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithFailureMessage replaces the body of 500 responses.
func WithFailureMessage(msg string) Option {
	return func(h *Handler) {
		if msg != "" {
			h.failureMessage = msg
		}
	}
}

// WithBackendLabel sets the backend label on the enqueue latency histogram.
func WithBackendLabel(name string) Option {
	return func(h *Handler) {
		h.backendLabel = name
	}
}

// New returns a Handler that enqueues through q.
func New(q Enqueuer, n *events.Normalizer, opts ...Option) *Handler {
	h := &Handler{
		queue:          q,
		normalizer:     n,
		failureMessage: MessageServerError,
		backendLabel:   "unknown",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	in, err := events.DecodeClientEvent(r.Body)
	if err != nil {
		entry := logger.Warn().Err(err).Str("error_kind", kindInvalid)
		var verr events.ValidationError
		if errors.As(err, &verr) {
			entry = entry.Strs("fields", verr.Fields)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			entry = entry.Int64("limit_bytes", maxErr.Limit)
		}
		entry.Msg("rejected event")

		metrics.EventsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		writeText(w, http.StatusBadRequest, MessageInvalidRequest)
		return
	}

	out := h.normalizer.Normalize(in)

	start := time.Now()
	err = h.queue.Perform(r.Context(), queue.Enqueue[events.OutboundEvent]{Payload: out})
	metrics.EnqueueDuration.WithLabelValues(h.backendLabel).Observe(time.Since(start).Seconds())

	if err != nil {
		kind, outcome := classify(err)
		if errors.Is(err, queue.ErrPoisoned) {
			metrics.BackendPoisoned.Set(1)
		}
		logger.Error().
			Err(err).
			Str("error_kind", kind).
			Str("hostname", out.Hostname).
			Str("category", out.Category).
			Msg("failed to queue event")

		metrics.EventsTotal.WithLabelValues(outcome).Inc()
		writeText(w, http.StatusInternalServerError, h.failureMessage)
		return
	}

	logger.Debug().
		Str("hostname", out.Hostname).
		Str("category", out.Category).
		Str("severity", out.Severity.String()).
		Msg("event queued")

	metrics.EventsTotal.WithLabelValues(metrics.OutcomeForwarded).Inc()
	writeText(w, http.StatusOK, MessageSuccess)
}

func classify(err error) (kind, outcome string) {
	switch {
	case errors.Is(err, queue.ErrGuard):
		return kindGuard, metrics.OutcomeGuardError
	case errors.Is(err, queue.ErrEncode):
		return kindEncode, metrics.OutcomeBackendError
	default:
		return kindBackend, metrics.OutcomeBackendError
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
