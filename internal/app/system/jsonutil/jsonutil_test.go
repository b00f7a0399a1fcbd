package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "200 OK with data",
			status:     http.StatusOK,
			data:       map[string]bool{"ok": true},
			wantStatus: http.StatusOK,
			wantBody:   `{"ok":true}`,
		},
		{
			name:       "201 Created with data",
			status:     http.StatusCreated,
			data:       map[string]int{"id": 123},
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":123}`,
		},
		{
			name:       "unencodable data",
			status:     http.StatusOK,
			data:       map[string]float64{"x": math.Inf(1)},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to encode response"}`,
		},
		{
			name:       "nil data",
			status:     http.StatusOK,
			data:       nil,
			wantStatus: http.StatusOK,
			wantBody:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			body := strings.TrimSpace(rec.Body.String())
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantHandled bool
		wantStatus  int
		wantBody    string
	}{
		{"nil", nil, false, http.StatusOK, ""},
		{"not found", apperr.NotFound("Folder not found"), true, http.StatusNotFound, `{"error":"Folder not found"}`},
		{"invalid", apperr.Invalid("Columns required"), true, http.StatusBadRequest, `{"error":"Columns required"}`},
		{"wrapped invalid", fmt.Errorf("ctx: %w", apperr.ErrInvalidInput), true, http.StatusBadRequest, `{"error":"ctx: invalid input"}`},
		{"conflict", apperr.Conflict("Table already exists"), true, http.StatusConflict, `{"error":"Table already exists"}`},
		{"storage failure", fmt.Errorf("connection refused"), false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handled := FromError(rec, tt.err)
			if handled != tt.wantHandled {
				t.Fatalf("FromError() = %v, want %v", handled, tt.wantHandled)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Reports"}`))
		var v struct{ Name string }
		if err := Decode(req, &v); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if v.Name != "Reports" {
			t.Errorf("Name = %q, want Reports", v.Name)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var v struct{ Name string }
		if err := Decode(req, &v); err != nil {
			t.Errorf("Decode() error = %v, want nil", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var v struct{ Name string }
		if err := Decode(req, &v); err == nil {
			t.Error("Decode() error = nil, want error")
		}
	})
}

func TestDecodeNumbers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"values":{"n":9007199254740993,"f":1.5}}`))
	var v struct {
		Values map[string]any `json:"values"`
	}
	if err := DecodeNumbers(req, &v); err != nil {
		t.Fatalf("DecodeNumbers() error = %v", err)
	}
	n, ok := v.Values["n"].(json.Number)
	if !ok || n.String() != "9007199254740993" {
		t.Errorf("n = %#v, want json.Number 9007199254740993", v.Values["n"])
	}
	if f, ok := v.Values["f"].(json.Number); !ok || f.String() != "1.5" {
		t.Errorf("f = %#v, want json.Number 1.5", v.Values["f"])
	}

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeNumbers(empty, &v); err != nil {
		t.Errorf("DecodeNumbers(empty) error = %v, want nil", err)
	}
}
