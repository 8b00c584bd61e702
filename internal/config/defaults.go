// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/telemetry"
)

const (
	DefaultListenAddr   = ":8080"
	DefaultDataDir      = "/var/lib/swapd"
	DefaultLogLevel     = "info"
	DefaultAuthHeader   = "X-Actor-ID"
	DefaultCachePrefix  = "swapd:cache:"
	DefaultServiceName  = "swapd"
	DefaultOTLPEndpoint = "localhost:4317"
)

// Defaults returns the built-in configuration before file and environment
// overrides.
func Defaults() AppConfig {
	policy := model.DefaultPolicy()
	dispatch := notify.DefaultOptions()
	return AppConfig{
		DataDir:  DefaultDataDir,
		LogLevel: DefaultLogLevel,
		HTTP: HTTPConfig{
			ListenAddr:      DefaultListenAddr,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: store.BackendSQLite,
			Path:    "swapd.db",
		},
		Cache: CacheConfig{
			Backend:         CacheMemory,
			KeyPrefix:       DefaultCachePrefix,
			JanitorInterval: time.Minute,
		},
		Notify: NotifyConfig{
			Sink:           SinkLog,
			Stream:         notify.DefaultStream,
			StreamMaxLen:   10000,
			Buffer:         dispatch.Buffer,
			RatePerSec:     float64(dispatch.RatePerSec),
			Burst:          dispatch.Burst,
			DeliverTimeout: dispatch.DeliverLimit,
		},
		Policy: PolicyConfig{
			CompletionCooldown:   policy.CompletionCooldown,
			MinCancelDescription: policy.MinCancelDescription,
			MaxReviewComment:     policy.MaxReviewComment,
			MaxEvidenceFiles:     policy.MaxEvidenceFiles,
			MentorRule:           string(policy.MentorRule),
		},
		Auth: AuthConfig{
			Mode:   AuthModeHeader,
			Header: DefaultAuthHeader,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 120,
			Window:   time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  DefaultServiceName,
			Environment:  "production",
			Exporter:     telemetry.ExporterGRPC,
			Endpoint:     DefaultOTLPEndpoint,
			SamplingRate: 1.0,
		},
	}
}
