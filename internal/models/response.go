// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes next to human-readable messages
// - RFC3339 timestamps
package models

import (
	"time"
)

// TokenResponse is returned by the register and token endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewTokenResponse(token string, ttl time.Duration) *TokenResponse {
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	}
}

// AnalyzeResponse carries a generated sector report.
type AnalyzeResponse struct {
	Sector         string    `json:"sector"`
	GeneratedAt    time.Time `json:"generated_at"`
	ReportMarkdown string    `json:"report_markdown"`
	ReportID       string    `json:"report_id,omitempty"`
	Model          string    `json:"model,omitempty"`
	Sources        int       `json:"sources"`
}

type ReportSummary struct {
	ID        string    `json:"id"`
	Sector    string    `json:"sector"`
	Model     string    `json:"model"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListReportsResponse struct {
	Reports    []ReportSummary `json:"reports"`
	TotalCount int             `json:"total_count"`
}

func (rs *ReportSummary) FromReport(report *Report) {
	rs.ID = report.ID
	rs.Sector = report.Sector
	rs.Model = report.Model
	rs.FileName = report.FileName
	rs.CreatedAt = report.CreatedAt
}

// ErrorResponse provides structured error information.
//
// Error Handling Design:
// - Consistent error structure across all endpoints
// - Machine-readable error codes for programmatic handling
// - Details map for field-specific validation errors
// - Request ID for correlating with server logs
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status         string                     `json:"status"`
	Timestamp      time.Time                  `json:"timestamp"`
	Version        string                     `json:"version,omitempty"`
	Uptime         string                     `json:"uptime,omitempty"`
	ActiveSessions int                        `json:"active_sessions"`
	Components     map[string]ComponentHealth `json:"components,omitempty"`
	Metrics        map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
)

// Standard HTTP Error Codes
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Resource doesn't exist
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"     // 400: Invalid request data
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 422: Input validation failed
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeUnauthorized       = "UNAUTHORIZED"        // 401: Authentication required
	ErrorCodeSessionExpired     = "SESSION_EXPIRED"     // 401: Server-side session ended
	ErrorCodeConflict           = "CONFLICT"            // 400: Username taken
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED" // 429: Quota exhausted
	ErrorCodeUpstreamFailure    = "UPSTREAM_FAILURE"    // 502: Collector or model failed
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if status != StatusHealthy && h.Status == StatusHealthy {
		h.Status = StatusDegraded
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
