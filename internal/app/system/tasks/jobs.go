// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// KeyRefresher refetches token signing keys.
type KeyRefresher interface {
	Refresh(ctx context.Context) error
}

// OktaKeysJob keeps the Okta signing key cache warm so the first token after
// a key rotation does not pay for the fetch.
func OktaKeysJob(keys KeyRefresher, interval time.Duration) Job {
	return Job{
		Name:     "okta-keys-refresh",
		Interval: interval,
		Run:      keys.Refresh,
	}
}

// PoolStatsJob logs PostgreSQL pool usage.
func PoolStatsJob(pool *pgxpool.Pool, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "postgres-pool-stats",
		Interval: interval,
		Run: func(ctx context.Context) error {
			st := pool.Stat()
			logger.Info("postgres pool stats",
				zap.Int32("total_conns", st.TotalConns()),
				zap.Int32("idle_conns", st.IdleConns()),
				zap.Int32("acquired_conns", st.AcquiredConns()),
				zap.Int32("max_conns", st.MaxConns()),
				zap.Int64("acquire_count", st.AcquireCount()),
				zap.Int64("empty_acquire_count", st.EmptyAcquireCount()),
				zap.Duration("acquire_duration", st.AcquireDuration()))
			return nil
		},
	}
}

// AuditPruner removes audit events older than a cutoff.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetentionJob deletes audit events older than retention once a day.
func AuditRetentionJob(store AuditPruner, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned audit events",
					zap.Int64("deleted", n),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
