package audit

import (
	"testing"
	"time"

	"github.com/dalemusser/stratadmin/internal/testutil"
)

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestMongo(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	// idempotent
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes() second call error = %v", err)
	}
}

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestMongo(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := 7
	base := time.Now().Add(-time.Hour)
	events := []Event{
		{Category: CategoryAuth, EventType: EventLoginSuccess, UserID: &uid, Email: "a@example.com", Success: true, CreatedAt: base},
		{Category: CategoryAuth, EventType: EventLoginFailed, Email: "a@example.com", FailureReason: "wrong password", CreatedAt: base.Add(time.Minute)},
		{Category: CategoryAdmin, EventType: EventTableCreated, UserID: &uid, Success: true, CreatedAt: base.Add(2 * time.Minute),
			Details: map[string]string{"table": "products"}},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{"all newest first", QueryFilter{}, []string{EventTableCreated, EventLoginFailed, EventLoginSuccess}},
		{"by category", QueryFilter{Category: CategoryAuth}, []string{EventLoginFailed, EventLoginSuccess}},
		{"by event type", QueryFilter{EventType: EventTableCreated}, []string{EventTableCreated}},
		{"by user", QueryFilter{UserID: &uid}, []string{EventTableCreated, EventLoginSuccess}},
		{"limit", QueryFilter{Limit: 1}, []string{EventTableCreated}},
		{"offset", QueryFilter{Offset: 2}, []string{EventLoginSuccess}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Query() returned %d events, want %d", len(got), len(tt.want))
			}
			for i, et := range tt.want {
				if got[i].EventType != et {
					t.Errorf("events[%d] = %s, want %s", i, got[i].EventType, et)
				}
			}
		})
	}

	start := base.Add(30 * time.Second)
	n, err := store.CountByFilter(ctx, QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("CountByFilter() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountByFilter() = %d, want 2", n)
	}

	got, _ := store.Query(ctx, QueryFilter{EventType: EventTableCreated})
	if got[0].Details["table"] != "products" {
		t.Errorf("Details = %v, want table=products", got[0].Details)
	}
	if got[0].ID.IsZero() {
		t.Error("Log() did not assign ID")
	}
}

func TestStore_DeleteBefore(t *testing.T) {
	db := testutil.SetupTestMongo(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		if err := store.Log(ctx, Event{Category: CategoryAuth, EventType: EventLoginSuccess, CreatedAt: now.Add(-age)}); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	n, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteBefore() = %d, want 2", n)
	}
	left, _ := store.CountByFilter(ctx, QueryFilter{})
	if left != 1 {
		t.Errorf("remaining events = %d, want 1", left)
	}
}
