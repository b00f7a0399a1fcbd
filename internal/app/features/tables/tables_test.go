package tables

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/app/system/auditlog"
	"github.com/dalemusser/stratadmin/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T) (http.Handler, *pgxpool.Pool, *observer.ObservedLogs) {
	t.Helper()
	pool := testutil.SetupTestDB(t)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	audit := auditlog.New(nil, logger, auditlog.Config{Auth: auditlog.ModeAll, Admin: auditlog.ModeAll})
	h := NewHandler(pool, 0, audit, errorsfeature.NewErrorLogger(logger), logger)
	return Routes(h), pool, logs
}

func serve(h http.Handler, method, target, body string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest(method, target, body, testutil.AdminUser()))
	return rec
}

func TestHandler_ListTables(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/", "")
	rec.AssertStatus(t, http.StatusOK)

	var names []string
	if err := json.Unmarshal(rec.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"files", "folders", "materials", "users"}
	if len(names) != len(want) {
		t.Fatalf("tables = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("tables[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestHandler_Columns(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/materials/columns", "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"quantity"`)
	rec.AssertContains(t, `"sqlType":"integer"`)

	rec = serve(router, http.MethodGet, "/nope/columns", "")
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Table not found")
}

func TestHandler_InsertAndUpdateRow(t *testing.T) {
	router, pool, logs := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := serve(router, http.MethodPost, "/materials/rows",
		`{"values":{"id":"42","code":"MAT-9","name":"Bolt","quantity":"7","price":"","unit":"pcs"}}`)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"ok":true`)
	rec.AssertContains(t, `"affected":1`)

	var (
		id    int
		qty   int
		price *float64
	)
	err := pool.QueryRow(ctx, `SELECT id, quantity, price::float8 FROM materials WHERE code = 'MAT-9'`).
		Scan(&id, &qty, &price)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if id == 42 {
		t.Error("payload id must not be inserted")
	}
	if qty != 7 {
		t.Errorf("quantity = %d, want 7", qty)
	}
	if price != nil {
		t.Errorf("price = %v, want NULL", *price)
	}

	rec = serve(router, http.MethodPut, "/materials/rows",
		`{"original":{"id":`+strconv.Itoa(id)+`},"values":{"name":"Hex bolt","quantity":9}}`)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"affected":1`)

	var name string
	if err := pool.QueryRow(ctx, `SELECT name, quantity FROM materials WHERE id = $1`, id).Scan(&name, &qty); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "Hex bolt" || qty != 9 {
		t.Errorf("row = (%q, %d), want (Hex bolt, 9)", name, qty)
	}

	rec = serve(router, http.MethodGet, "/materials/rows", "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"Hex bolt"`)

	if n := logs.FilterField(zap.String("event_type", "table_row_inserted")).Len(); n != 1 {
		t.Errorf("table_row_inserted audit entries = %d, want 1", n)
	}
	if n := logs.FilterField(zap.String("event_type", "table_row_updated")).Len(); n != 1 {
		t.Errorf("table_row_updated audit entries = %d, want 1", n)
	}
}

func TestHandler_NumericEdges(t *testing.T) {
	router, pool, _ := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE TABLE measures (id SERIAL PRIMARY KEY, label TEXT, n BIGINT, ratio DOUBLE PRECISION)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows := []string{
		`{"values":{"label":"exact","n":9007199254740993}}`,
		`{"values":{"label":"huge","n":1e20}}`,
		`{"values":{"label":"inf","ratio":"Infinity"}}`,
	}
	for _, body := range rows {
		serve(router, http.MethodPost, "/measures/rows", body).AssertStatus(t, http.StatusCreated)
	}

	var exact int64
	if err := pool.QueryRow(ctx, `SELECT n FROM measures WHERE label = 'exact'`).Scan(&exact); err != nil {
		t.Fatalf("select exact: %v", err)
	}
	if exact != 9007199254740993 {
		t.Errorf("n = %d, want 9007199254740993", exact)
	}

	var huge *int64
	if err := pool.QueryRow(ctx, `SELECT n FROM measures WHERE label = 'huge'`).Scan(&huge); err != nil {
		t.Fatalf("select huge: %v", err)
	}
	if huge != nil {
		t.Errorf("n for 1e20 = %d, want NULL", *huge)
	}

	rec := serve(router, http.MethodGet, "/measures/rows", "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"label":"inf"`)
	rec.AssertContains(t, `"ratio":null`)
	rec.AssertContains(t, `"n":9007199254740993`)
}

func TestHandler_RowErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		msg    string
	}{
		{"bad json", http.MethodPost, "/materials/rows", `{"values":`, http.StatusBadRequest, "Invalid JSON body"},
		{"unknown table", http.MethodPost, "/ghosts/rows", `{"values":{"a":1}}`, http.StatusNotFound, "Table not found"},
		{"missing key", http.MethodPut, "/materials/rows", `{"original":{},"values":{"name":"x"}}`, http.StatusBadRequest, "Primary key missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, tt.body)
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.msg)
		})
	}
}

func TestHandler_CreateTable(t *testing.T) {
	router, _, logs := newTestRouter(t)

	body := `{"tableName":"products","columns":[{"name":"id","type":"integer"},{"name":"title","type":"text","nullable":false}]}`
	rec := serve(router, http.MethodPost, "/", body)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"ok":true`)

	rec = serve(router, http.MethodPost, "/", body)
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "Table already exists")

	rec = serve(router, http.MethodPost, "/",
		`{"tableName":"ledger","columns":[{"name":"id","type":"integer"},{"name":"amount","type":"money"}]}`)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = serve(router, http.MethodGet, "/ledger/columns", "")
	rec.AssertStatus(t, http.StatusNotFound)

	if n := logs.FilterField(zap.String("event_type", "table_created")).Len(); n != 1 {
		t.Errorf("table_created audit entries = %d, want 1", n)
	}
}
