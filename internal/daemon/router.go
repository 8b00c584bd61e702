// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/skillswap/internal/control/http/v1"
	"github.com/ManuGH/skillswap/internal/control/middleware"
)

// NewHandler builds the root router: the ingress stack, health checks, metrics and
// the authenticated API.
func NewHandler(rt *Runtime) (http.Handler, error) {
	cfg := rt.Config

	proxies, err := middleware.ParseCIDRs(cfg.HTTP.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		TrustedProxies:        proxies,
		EnableMetrics:         true,
		EnableLogging:         true,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.Telemetry.ServiceName
	}
	var actorLimit *v1.ActorRateLimit
	if cfg.RateLimit.Enabled {
		auditLog := rt.Audit
		stack.RateLimit = &middleware.RateLimitConfig{
			Scope:        "ip",
			RequestLimit: cfg.RateLimit.Requests,
			WindowSize:   cfg.RateLimit.Window,
			OnLimited: func(r *http.Request) {
				auditLog.RateLimitExceeded(r.RemoteAddr, r.URL.Path)
			},
		}
		actorLimit = &v1.ActorRateLimit{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window}
	}

	r := middleware.NewRouter(stack)
	r.Get("/healthz", rt.Health.ServeHealth)
	r.Get("/readyz", rt.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount(v1.BasePath, v1.Handler(v1.Deps{
		Workflow:      rt.Workflow,
		Authenticator: rt.Auth,
		Audit:         rt.Audit,
		RateLimit:     actorLimit,
	}))
	return r, nil
}
