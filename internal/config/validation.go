// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/telemetry"
	"github.com/ManuGH/skillswap/internal/validate"
)

// minJWTSecret is the shortest accepted HS256 secret, in bytes.
const minJWTSecret = 32

// Validate checks the resolved configuration. All problems are reported at
// once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("dataDir", cfg.DataDir)
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil || cfg.LogLevel == "" {
		v.AddError("logLevel", "invalid log level (must be: trace, debug, info, warn, error)", cfg.LogLevel)
	}

	v.ListenAddr("http.listenAddr", cfg.HTTP.ListenAddr)
	v.PositiveDuration("http.readTimeout", cfg.HTTP.ReadTimeout)
	v.PositiveDuration("http.writeTimeout", cfg.HTTP.WriteTimeout)
	v.PositiveDuration("http.idleTimeout", cfg.HTTP.IdleTimeout)
	v.PositiveDuration("http.shutdownTimeout", cfg.HTTP.ShutdownTimeout)
	for _, p := range cfg.HTTP.TrustedProxies {
		if !validProxy(p) {
			v.AddError("http.trustedProxies", "must be an IP address or CIDR", p)
		}
	}

	v.OneOf("store.backend", cfg.Store.Backend, []string{store.BackendSQLite, store.BackendBadger, store.BackendMemory})
	if cfg.Store.Backend != store.BackendMemory {
		v.NotEmpty("store.path", cfg.Store.Path)
	}

	if cfg.Redis.Enabled() {
		v.HostPort("redis.addr", cfg.Redis.Addr)
		v.Range("redis.db", cfg.Redis.DB, 0, 15)
	}

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{CacheNone, CacheMemory, CacheRedis})
	if cfg.Cache.Backend == CacheRedis && !cfg.Redis.Enabled() {
		v.AddError("cache.backend", "redis cache requires redis.addr", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == CacheMemory {
		v.PositiveDuration("cache.janitorInterval", cfg.Cache.JanitorInterval)
	}

	v.OneOf("notify.sink", cfg.Notify.Sink, []string{SinkLog, SinkRedis, SinkBoth})
	if cfg.Notify.Sink != SinkLog {
		if !cfg.Redis.Enabled() {
			v.AddError("notify.sink", "redis sink requires redis.addr", cfg.Notify.Sink)
		}
		v.NotEmpty("notify.stream", cfg.Notify.Stream)
	}
	v.Positive("notify.buffer", cfg.Notify.Buffer)
	if cfg.Notify.RatePerSec < 0 {
		v.AddError("notify.ratePerSec", "value cannot be negative", cfg.Notify.RatePerSec)
	}
	if cfg.Notify.RatePerSec > 0 {
		v.Positive("notify.burst", cfg.Notify.Burst)
	}
	v.PositiveDuration("notify.deliverTimeout", cfg.Notify.DeliverTimeout)

	v.Custom("policy", cfg.WorkflowPolicy(), func(any) error {
		return cfg.WorkflowPolicy().Validate()
	})
	if cfg.Policy.MaxReviewComment > 0 && cfg.Policy.MinCancelDescription > cfg.Policy.MaxReviewComment {
		v.AddError("policy.minCancelDescription",
			fmt.Sprintf("must not exceed policy.maxReviewComment (%d)", cfg.Policy.MaxReviewComment),
			cfg.Policy.MinCancelDescription)
	}

	v.OneOf("auth.mode", cfg.Auth.Mode, []string{AuthModeHeader, AuthModeJWT})
	switch cfg.Auth.Mode {
	case AuthModeHeader:
		v.NotEmpty("auth.header", cfg.Auth.Header)
	case AuthModeJWT:
		if len(cfg.Auth.JWTSecret) < minJWTSecret {
			v.AddError("auth.jwtSecret", fmt.Sprintf("must be at least %d bytes", minJWTSecret), "***")
		}
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requests", cfg.RateLimit.Requests)
		v.PositiveDuration("rateLimit.window", cfg.RateLimit.Window)
	}

	if cfg.Telemetry.Enabled {
		v.NotEmpty("telemetry.serviceName", cfg.Telemetry.ServiceName)
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{telemetry.ExporterGRPC, telemetry.ExporterHTTP})
		v.HostPort("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.Ratio("telemetry.samplingRate", cfg.Telemetry.SamplingRate)

	return v.Err()
}

func validProxy(raw string) bool {
	if strings.Contains(raw, "/") {
		_, _, err := net.ParseCIDR(raw)
		return err == nil
	}
	return net.ParseIP(raw) != nil
}
