package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorLogger_Log(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	el := NewErrorLogger(zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/folders/tree", nil)
	middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		el.Log(r, "load tree", stderrors.New("boom"))
	})).ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 {
		t.Fatalf("log entries = %d, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["path"] != "/folders/tree" {
		t.Errorf("path = %v, want /folders/tree", fields["path"])
	}
	if fields["request_id"] == nil || fields["request_id"] == "" {
		t.Error("request_id missing")
	}
}

func TestErrorLogger_Respond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantLogged int
	}{
		{"not found", apperr.NotFound("Folder not found"), http.StatusNotFound, `{"error":"Folder not found"}`, 0},
		{"invalid", fmt.Errorf("move: %w", apperr.Invalid("Cannot move")), http.StatusBadRequest, `{"error":"move: Cannot move"}`, 0},
		{"storage failure", stderrors.New("connection reset"), http.StatusInternalServerError, `{"error":"Internal server error"}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			el := NewErrorLogger(zap.New(core))

			rec := httptest.NewRecorder()
			el.Respond(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "op failed", tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody+"\n" {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if logs.Len() != tt.wantLogged {
				t.Errorf("log entries = %d, want %d", logs.Len(), tt.wantLogged)
			}
		})
	}
}

func TestNotFoundHandlers(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/tables", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("MethodNotAllowed status = %d, want 405", rec.Code)
	}
}
