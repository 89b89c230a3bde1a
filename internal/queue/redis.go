package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// RedisStream appends each body to a Redis stream under the "body" field.
type RedisStream struct {
	client streamAdder
	stream string
	maxLen int64
}

// NewRedisStream writes to stream. A positive maxLen caps the stream length
// approximately.
func NewRedisStream(client *redis.Client, stream string, maxLen int64) *RedisStream {
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStream) Send(ctx context.Context, body []byte) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"body": body},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

func (s *RedisStream) Name() string    { return "redis" }
func (s *RedisStream) Address() string { return s.stream }

func (s *RedisStream) Close() error {
	return s.client.Close()
}
