// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	controlhttp "github.com/ManuGH/skillswap/internal/control/http"
	"github.com/ManuGH/skillswap/internal/control/http/problem"
)

var rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swapd_http_rate_limited_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"scope"})

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// Scope labels metrics, e.g. "ip" or "actor".
	Scope string
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// KeyFunc extracts the rate limit key from the request (e.g., IP address)
	// If nil, defaults to IP-based rate limiting
	KeyFunc func(r *http.Request) (string, error)
	// OnLimited is called for every rejected request.
	OnLimited func(r *http.Request)
}

// RateLimit creates a rate limiting middleware using the httprate library.
// It uses a sliding window counter algorithm.
//
// Example usage:
//
//	// Limit to 10 requests per minute per IP
//	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
//	    RequestLimit: 10,
//	    WindowSize:   time.Minute,
//	}))
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	scope := cfg.Scope
	if scope == "" {
		scope = "ip"
	}
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rateLimitedTotal.WithLabelValues(scope).Inc()
			if cfg.OnLimited != nil {
				cfg.OnLimited(r)
			}
			w.Header().Set(controlhttp.HeaderRetryAfter, retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, "swap/rate_limited", "Too Many Requests",
				"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.", nil)
		}),
	)
}
