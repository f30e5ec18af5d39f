// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// APIResponse is the envelope of every billing and health response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Count      *int      `json:"count,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
)

// ResponseWriter writes enveloped JSON responses.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a new response writer.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{
		w:         w,
		r:         r,
		startTime: time.Now(),
	}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.startTime).Milliseconds(),
	}
}

// Success writes a 200 response with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.write(http.StatusOK, data, nil)
}

// List writes a 200 response whose meta carries the item count.
func (rw *ResponseWriter) List(data interface{}, count int) {
	rw.write(http.StatusOK, data, &count)
}

// Created writes a 201 Created response.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.write(http.StatusCreated, data, nil)
}

func (rw *ResponseWriter) write(status int, data interface{}, count *int) {
	meta := rw.meta()
	meta.Count = count
	rw.writeJSON(status, APIResponse{Success: true, Data: data, Meta: meta})
}

// Error writes an error response with the given status code.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details interface{}) {
	meta := rw.meta()
	rw.writeJSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

// BadRequest writes a 400 Bad Request error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound writes a 404 Not Found error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict writes a 409 Conflict error.
func (rw *ResponseWriter) Conflict(message string) {
	rw.Error(http.StatusConflict, ErrCodeConflict, message)
}

// InternalError writes a 500 Internal Server Error.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable writes a 503 Service Unavailable error.
func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// ValidationError writes a 400 error with validation details.
func (rw *ResponseWriter) ValidationError(message string, details interface{}) {
	rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, message, details)
}

// DatabaseError logs err and writes a 500 without exposing it.
func (rw *ResponseWriter) DatabaseError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Str("path", rw.r.URL.Path).Msg("Database error")
	rw.Error(http.StatusInternalServerError, ErrCodeDatabaseError, "A database error occurred")
}

func (rw *ResponseWriter) writeJSON(statusCode int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.Header().Set("Cache-Control", "no-store")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError is a convenience function for writing error responses.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	NewResponseWriter(w, r).Error(statusCode, code, message)
}
