package materials

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/stratadmin/internal/app/features/errors"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/dalemusser/stratadmin/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	pool := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return Routes(NewHandler(pool, errorsfeature.NewErrorLogger(logger), logger))
}

func serve(h http.Handler, method, target, body string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest(method, target, body, testutil.AdminUser()))
	return rec
}

func TestHandler_CreateListUpdate(t *testing.T) {
	router := newRouter(t)

	rec := serve(router, http.MethodPost, "/",
		`{"code":"MAT-100","name":"Copper wire","category":"Electrical","department":"Maintenance","quantity":12,"unit":"m","price":3.5}`)
	rec.AssertStatus(t, http.StatusCreated)
	var created models.Material
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Quantity != 12 || created.Price == nil || *created.Price != 3.5 {
		t.Errorf("created = %+v", created)
	}

	serve(router, http.MethodPost, "/", `{"code":"MAT-101","name":"Paint","department":"Facilities"}`).
		AssertStatus(t, http.StatusCreated)

	rec = serve(router, http.MethodGet, "/?department=Maintenance&name=COPPER", "")
	rec.AssertStatus(t, http.StatusOK)
	var items []models.Material
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Code != "MAT-100" {
		t.Errorf("filtered list = %+v, want MAT-100 only", items)
	}

	rec = serve(router, http.MethodPut, "/"+strconv.Itoa(created.ID), `{"quantity":20}`)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"quantity":20`)
	rec.AssertContains(t, `"name":"Copper wire"`)
}

func TestHandler_Errors(t *testing.T) {
	router := newRouter(t)

	serve(router, http.MethodPost, "/", `{"code":"MAT-1","name":"A"}`).AssertStatus(t, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		msg    string
	}{
		{"missing code", http.MethodPost, "/", `{"name":"A"}`, http.StatusBadRequest, "Material code required"},
		{"missing name", http.MethodPost, "/", `{"code":"MAT-2"}`, http.StatusBadRequest, "Material name required"},
		{"duplicate code", http.MethodPost, "/", `{"code":"MAT-1","name":"B"}`, http.StatusBadRequest, "already exists"},
		{"unknown id", http.MethodPut, "/9999", `{"name":"B"}`, http.StatusNotFound, "Material not found"},
		{"bad id", http.MethodPut, "/x", `{}`, http.StatusBadRequest, "Invalid material id"},
		{"negative quantity", http.MethodPost, "/", `{"code":"MAT-3","name":"C","quantity":-2}`, http.StatusBadRequest, "Quantity cannot be negative"},
		{"negative price", http.MethodPost, "/", `{"code":"MAT-5","name":"E","price":-1}`, http.StatusBadRequest, "Price cannot be negative"},
		{"long unit", http.MethodPost, "/", `{"code":"MAT-4","name":"D","unit":"` + strings.Repeat("u", 40) + `"}`, http.StatusBadRequest, "Unit must be at most 32 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, tt.body)
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.msg)
		})
	}
}
