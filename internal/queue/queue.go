// Package queue implements the enqueue capability over pluggable message
// queue backends and the guard that lets one backend be shared by
// concurrent requests.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Togather-Foundation/mozdef-proxy/internal/queue"

var (
	// ErrEncode means the payload could not be serialized. The backend was not called.
	ErrEncode = errors.New("queue: encode payload")

	// ErrSend marks failures reported by a backend.
	ErrSend = errors.New("queue: send")

	// ErrGuard marks failures to obtain clean access to a shared backend.
	// It never matches ErrSend.
	ErrGuard = errors.New("queue: guard unavailable")

	// ErrPoisoned means an earlier call panicked while holding the guard.
	ErrPoisoned = errors.New("queue: handle poisoned by earlier panic")
)

// Enqueue asks a capability to place one payload on a queue.
type Enqueue[T any] struct {
	Payload T
}

// Backend delivers encoded message bodies to one queue. Implementations are
// not required to be safe for concurrent use.
type Backend interface {
	// Send delivers body synchronously, exactly once, without retrying.
	Send(ctx context.Context, body []byte) error
	// Name identifies the backend kind, e.g. "sqs".
	Name() string
	// Address is the queue URL, topic or stream the backend writes to.
	Address() string
	Close() error
}

// SendError wraps a backend failure. errors.Is(err, ErrSend) holds, and
// errors.As still reaches the backend's own error type.
type SendError struct {
	Backend string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Backend, e.Err)
}

func (e *SendError) Unwrap() []error {
	return []error{ErrSend, e.Err}
}

// Queue is the enqueue capability for payloads of type T. It JSON-encodes the
// payload and hands it to its backend.
type Queue[T any] struct {
	backend Backend
	tracer  trace.Tracer
}

// New returns a Queue that sends through backend.
func New[T any](backend Backend) *Queue[T] {
	return &Queue[T]{
		backend: backend,
		tracer:  otel.Tracer(tracerName),
	}
}

func (q *Queue[T]) Backend() Backend {
	return q.backend
}

func (q *Queue[T]) Perform(ctx context.Context, op Enqueue[T]) error {
	ctx, span := q.tracer.Start(ctx, "queue.enqueue",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", q.backend.Name()),
			attribute.String("messaging.destination.name", q.backend.Address()),
		),
	)
	defer span.End()

	body, err := json.Marshal(op.Payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	span.SetAttributes(attribute.Int("messaging.message.body.size", len(body)))

	if err := q.backend.Send(ctx, body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		return &SendError{Backend: q.backend.Name(), Err: err}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
