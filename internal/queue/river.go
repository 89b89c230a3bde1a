package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// JobKindEvent is the River job kind consumers register a worker for.
const JobKindEvent = "mozdef_event"

// EventArgs carries one encoded event as a River job.
type EventArgs struct {
	Body json.RawMessage `json:"body"`
}

func (EventArgs) Kind() string { return JobKindEvent }

type jobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// River inserts each body as a job into a Postgres-backed River queue. The
// client is insert-only; workers run in the consuming service.
type River struct {
	client jobInserter
	queue  string
	pool   *pgxpool.Pool
}

// NewRiver builds an insert-only River client over pool. The River schema
// must already be migrated.
func NewRiver(pool *pgxpool.Pool, queueName string) (*River, error) {
	if queueName == "" {
		queueName = river.QueueDefault
	}
	client, err := river.NewClient[pgx.Tx](riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("river client: %w", err)
	}
	return &River{client: client, queue: queueName, pool: pool}, nil
}

func (r *River) Send(ctx context.Context, body []byte) error {
	_, err := r.client.Insert(ctx, EventArgs{Body: body}, &river.InsertOpts{Queue: r.queue})
	return err
}

func (r *River) Name() string    { return "river" }
func (r *River) Address() string { return r.queue }

func (r *River) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Pool exposes the connection pool for statistics collection.
func (r *River) Pool() *pgxpool.Pool {
	return r.pool
}
