// Package jsonutil provides helper functions for JSON API responses.
//
// Every console endpoint answers with JSON. Errors use the body
// {"error": message} so the dashboard can show the message as-is.
package jsonutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
)

// JSON writes a JSON response with the given status code. data is encoded
// before anything is written, so a value that cannot be encoded becomes a 500
// instead of a truncated success.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to encode response"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response (no body).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// PayloadTooLarge writes a 413 error response.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	Error(w, http.StatusRequestEntityTooLarge, message)
}

// InternalError writes a 500 Internal Server Error response.
// Do not expose internal details to clients; log the actual error separately.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// FromError writes a 404, 400 or 409 response when err carries an apperr kind and
// reports whether it wrote anything. Callers handle the remaining errors
// (storage failures) themselves, usually by logging and calling InternalError.
//
//	if jsonutil.FromError(w, err) {
//	    return
//	}
//	h.errLog.Log(r, "failed to move folder", err)
//	jsonutil.InternalError(w, "failed to move folder")
func FromError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(w, err.Error())
		return true
	case errors.Is(err, apperr.ErrInvalidInput):
		BadRequest(w, err.Error())
		return true
	case errors.Is(err, apperr.ErrConflict):
		Conflict(w, err.Error())
		return true
	}
	return false
}

// Decode reads and decodes JSON from the request body into v.
// An empty body decodes to the zero value.
func Decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// DecodeNumbers is Decode with JSON numbers kept as json.Number, so integers
// beyond 2^53 reach the caller exactly.
func DecodeNumbers(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
