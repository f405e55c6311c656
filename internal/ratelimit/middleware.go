package ratelimit

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"tradeops/internal/models"
)

// RateLimitedMessage is the client-facing text of every 429 response.
const RateLimitedMessage = "Rate limit exceeded. Please try again later."

// Middleware throttles requests per client IP with limiter. It is mounted on
// the unauthenticated auth routes; authenticated routes are throttled by the
// caller's session instead.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r)
			allowed, info := limiter.Allow(key)

			SetHeaders(w, info)

			if !allowed {
				WriteRateLimited(w, info)
				slog.Warn("Auth rate limit exceeded",
					"client_ip", key,
					"limit", info.Limit,
					"retry_after", RetryAfterSeconds(info),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the X-RateLimit-* headers for info.
func SetHeaders(w http.ResponseWriter, info Info) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
}

// RetryAfterSeconds rounds info.RetryAfter up to whole seconds, never below 1.
func RetryAfterSeconds(info Info) int {
	return max(1, int(math.Ceil(info.RetryAfter.Seconds())))
}

// WriteRateLimited writes a 429 with Retry-After and the standard JSON error.
func WriteRateLimited(w http.ResponseWriter, info Info) {
	w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(info)))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(RateLimitedMessage, models.ErrorCodeRateLimited)); err != nil {
		slog.Error("Failed to encode rate limit response", "error", err)
	}
}

// ClientIP returns the originating client address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
