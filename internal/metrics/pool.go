package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection pool metrics for the river backend.
var (
	PoolConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_db_connections_open",
			Help:      "Total number of open queue database connections",
		},
	)

	PoolConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_db_connections_in_use",
			Help:      "Number of queue database connections currently acquired",
		},
	)

	PoolConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_db_connections_idle",
			Help:      "Number of idle queue database connections",
		},
	)

	PoolConnectionsMax = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_db_connections_max_open",
			Help:      "Maximum number of queue database connections allowed",
		},
	)
)

// PoolStater is satisfied by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// PoolCollector samples connection pool statistics on an interval.
type PoolCollector struct {
	pool PoolStater
	stop chan struct{}
}

func NewPoolCollector(pool PoolStater) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		stop: make(chan struct{}),
	}
}

// Start blocks, sampling every interval until Stop is called or ctx ends.
func (c *PoolCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *PoolCollector) Stop() {
	close(c.stop)
}

func (c *PoolCollector) collect() {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	PoolConnectionsOpen.Set(float64(stat.TotalConns()))
	PoolConnectionsInUse.Set(float64(stat.AcquiredConns()))
	PoolConnectionsIdle.Set(float64(stat.IdleConns()))
	PoolConnectionsMax.Set(float64(stat.MaxConns()))
}
