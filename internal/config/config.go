// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads swapd configuration from defaults, a strict YAML file
// and SWAPD_* environment variables, and hot-reloads it at runtime.
package config

import (
	"path/filepath"
	"time"

	"github.com/ManuGH/skillswap/internal/cache"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/telemetry"
	"golang.org/x/time/rate"
)

// Auth modes.
const (
	AuthModeHeader = "header"
	AuthModeJWT    = "jwt"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Notification sinks.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkBoth  = "both"
)

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version  string
	DataDir  string
	LogLevel string

	HTTP      HTTPConfig
	Store     StoreConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Notify    NotifyConfig
	Policy    PolicyConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type HTTPConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// TrustedProxies lists CIDRs or IPs allowed to set X-Forwarded-Proto.
	TrustedProxies []string
}

type StoreConfig struct {
	Backend string // sqlite, badger or memory
	// Path is relative to DataDir unless absolute.
	Path string
}

// RedisConfig is shared by the cache and the notification stream. An empty
// Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type CacheConfig struct {
	Backend   string
	KeyPrefix string
	// JanitorInterval applies to the memory backend.
	JanitorInterval time.Duration
}

type NotifyConfig struct {
	Sink           string
	Stream         string
	StreamMaxLen   int64
	Buffer         int
	RatePerSec     float64
	Burst          int
	DeliverTimeout time.Duration
}

type PolicyConfig struct {
	CompletionCooldown   time.Duration
	MinCancelDescription int
	MaxReviewComment     int
	MaxEvidenceFiles     int
	MentorRule           string
	Thresholds           map[string]int
}

type AuthConfig struct {
	Mode string
	// Header carries the actor id in header mode.
	Header      string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	// ServiceActors may ingest activity events for any user.
	ServiceActors []string
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// WorkflowPolicy converts the policy section into the domain policy.
func (c AppConfig) WorkflowPolicy() model.Policy {
	p := model.Policy{
		CompletionCooldown:   c.Policy.CompletionCooldown,
		MinCancelDescription: c.Policy.MinCancelDescription,
		MaxReviewComment:     c.Policy.MaxReviewComment,
		MaxEvidenceFiles:     c.Policy.MaxEvidenceFiles,
		MentorRule:           model.MentorRule(c.Policy.MentorRule),
	}
	if len(c.Policy.Thresholds) > 0 {
		p.Thresholds = make(map[model.BadgeID]int, len(c.Policy.Thresholds))
		for id, n := range c.Policy.Thresholds {
			p.Thresholds[model.BadgeID(id)] = n
		}
	}
	return p
}

func (c AppConfig) CacheRedis() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:      c.Redis.Addr,
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		KeyPrefix: c.Cache.KeyPrefix,
	}
}

func (c AppConfig) NotifyOptions() notify.Options {
	return notify.Options{
		Buffer:       c.Notify.Buffer,
		RatePerSec:   rate.Limit(c.Notify.RatePerSec),
		Burst:        c.Notify.Burst,
		DeliverLimit: c.Notify.DeliverTimeout,
	}
}

func (c AppConfig) TelemetryProvider() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Telemetry.Environment,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}

// StorePath resolves the store location against DataDir.
func (c AppConfig) StorePath() string {
	if c.Store.Path == "" || filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, c.Store.Path)
}
