// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/stratadmin/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	return fields
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg, append([]zap.Field{zap.Error(err)}, requestFields(r)...)...)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Error(err)}, requestFields(r)...)
	e.logger.Error(msg, append(allFields, fields...)...)
}

// Respond writes err to the client. Errors carrying an apperr kind keep their
// message and status; anything else is logged under msg (with fields) and
// answered with a generic 500.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	if jsonutil.FromError(w, err) {
		return
	}
	e.LogWithFields(r, msg, err, fields...)
	jsonutil.InternalError(w, "Internal server error")
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "Not found")
}

// MethodNotAllowed answers a known route called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
