package probes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/healthwatch/health"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Max      int32
}

// Postgres checks a pgx connection pool and reports its utilization.
type Postgres struct {
	component string
	pool      Pinger
	stats     func() PoolStats
}

// NewPostgres creates a probe for pool.
func NewPostgres(component string, pool *pgxpool.Pool) *Postgres {
	return newPostgres(component, pool, func() PoolStats {
		s := pool.Stat()
		return PoolStats{Acquired: s.AcquiredConns(), Idle: s.IdleConns(), Max: s.MaxConns()}
	})
}

func newPostgres(component string, pool Pinger, stats func() PoolStats) *Postgres {
	if component == "" {
		component = "database"
	}
	return &Postgres{component: component, pool: pool, stats: stats}
}

// OpenPostgres creates a pool for dsn and a probe over it. The pool
// connects lazily, so an unreachable database is reported by the probe
// rather than here.
func OpenPostgres(ctx context.Context, component, dsn string) (*Postgres, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("probes: postgres pool: %w", err)
	}
	return NewPostgres(component, pool), pool.Close, nil
}

// Name returns the component name.
func (p *Postgres) Name() string { return p.component }

// Check pings the database and samples pool utilization.
func (p *Postgres) Check(ctx context.Context) health.CheckResult {
	if err := p.pool.Ping(ctx); err != nil {
		return health.Critical("database ping failed", err)
	}

	s := p.stats()
	result := health.Healthy("database reachable").WithDetails(map[string]any{
		"acquired_conns": s.Acquired,
		"idle_conns":     s.Idle,
		"max_conns":      s.Max,
	})
	if s.Max > 0 {
		result = result.WithMetric(MetricPoolUtilizationPercent, float64(s.Acquired)/float64(s.Max)*100)
	}
	return result
}
