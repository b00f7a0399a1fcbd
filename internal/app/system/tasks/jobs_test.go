package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratadmin/internal/app/system/tasks"
	"github.com/dalemusser/stratadmin/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestOktaKeysJob(t *testing.T) {
	keys := &fakeRefresher{}
	job := tasks.OktaKeysJob(keys, 30*time.Minute)

	if job.Interval != 30*time.Minute {
		t.Errorf("Interval = %v, want 30m", job.Interval)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if keys.calls != 1 {
		t.Errorf("Refresh calls = %d, want 1", keys.calls)
	}

	keys.err = errors.New("issuer down")
	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() should surface the refresh error")
	}
}

func TestAuditRetentionJob(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakePruner{deleted: 3}
	job := tasks.AuditRetentionJob(store, 90*24*time.Hour, zap.New(core))

	before := time.Now()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := before.Add(-90 * 24 * time.Hour)
	if d := store.cutoff.Sub(want); d < 0 || d > time.Second {
		t.Errorf("cutoff = %v, want about %v", store.cutoff, want)
	}
	if n := logs.FilterMessage("pruned audit events").Len(); n != 1 {
		t.Errorf("prune log entries = %d, want 1", n)
	}

	// nothing deleted, nothing logged
	store.deleted = 0
	_ = job.Run(context.Background())
	if n := logs.FilterMessage("pruned audit events").Len(); n != 1 {
		t.Errorf("prune log entries = %d, want 1", n)
	}
}

func TestPoolStatsJob(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	core, logs := observer.New(zapcore.InfoLevel)
	job := tasks.PoolStatsJob(pool, time.Minute, zap.New(core))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	entries := logs.FilterMessage("postgres pool stats").All()
	if len(entries) != 1 {
		t.Fatalf("stats log entries = %d, want 1", len(entries))
	}
	if _, ok := entries[0].ContextMap()["max_conns"]; !ok {
		t.Error("stats entry missing max_conns")
	}
}
