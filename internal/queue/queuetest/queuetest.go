// Package queuetest provides in-memory queue backends for tests.
package queuetest

import (
	"context"
	"sync/atomic"
	"time"
)

// Message is one body captured by a Recorder.
type Message struct {
	Body    []byte
	Address string
}

// Recorder is a backend that keeps every body it is sent. Like a real queue
// client it is not safe for concurrent use. It counts overlapping Send calls
// so tests can check that a guard serialized them.
type Recorder struct {
	Addr string
	// Err, when set, is returned from every Send and nothing is recorded.
	Err error
	// Delay widens the window in which unserialized callers would overlap.
	Delay time.Duration

	messages []Message
	calls    atomic.Int32
	inFlight atomic.Int32
	overlaps atomic.Int32
}

func NewRecorder(addr string) *Recorder {
	return &Recorder{Addr: addr}
}

func (r *Recorder) Send(_ context.Context, body []byte) error {
	r.calls.Add(1)
	if r.inFlight.Add(1) > 1 {
		r.overlaps.Add(1)
	}
	defer r.inFlight.Add(-1)

	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
	if r.Err != nil {
		return r.Err
	}

	r.messages = append(r.messages, Message{
		Body:    append([]byte(nil), body...),
		Address: r.Addr,
	})
	return nil
}

func (r *Recorder) Name() string    { return "recorder" }
func (r *Recorder) Address() string { return r.Addr }
func (r *Recorder) Close() error    { return nil }

// Messages returns the captured bodies. Call it only after senders finish.
func (r *Recorder) Messages() []Message {
	return r.messages
}

// Calls counts Send invocations, successful or not.
func (r *Recorder) Calls() int {
	return int(r.calls.Load())
}

// Overlaps counts Send calls that started while another was still running.
func (r *Recorder) Overlaps() int {
	return int(r.overlaps.Load())
}
