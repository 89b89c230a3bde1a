package queue

import (
	"context"

	"github.com/rs/zerolog"
)

// Log writes bodies to the logger instead of a queue. It backs deployments
// that accept events without forwarding them.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "queue").Logger()}
}

func (l *Log) Send(_ context.Context, body []byte) error {
	l.logger.Info().RawJSON("event", body).Msg("event accepted without forwarding")
	return nil
}

func (l *Log) Name() string    { return "log" }
func (l *Log) Address() string { return "log" }
func (l *Log) Close() error    { return nil }
