// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment key.
const EnvPrefix = "SWAPD_"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, empty for ENV-only operation.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStringList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The file is parsed strictly before environment overrides are applied and
// the result is validated last.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes one strict YAML document.
func ParseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	var errs []error
	dur := func(field, raw string, dst *time.Duration) {
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return
		}
		*dst = d
	}
	str := func(raw string, dst *string) {
		if raw != "" {
			*dst = raw
		}
	}

	str(f.DataDir, &cfg.DataDir)
	str(f.LogLevel, &cfg.LogLevel)

	str(f.HTTP.ListenAddr, &cfg.HTTP.ListenAddr)
	dur("http.readTimeout", f.HTTP.ReadTimeout, &cfg.HTTP.ReadTimeout)
	dur("http.writeTimeout", f.HTTP.WriteTimeout, &cfg.HTTP.WriteTimeout)
	dur("http.idleTimeout", f.HTTP.IdleTimeout, &cfg.HTTP.IdleTimeout)
	dur("http.shutdownTimeout", f.HTTP.ShutdownTimeout, &cfg.HTTP.ShutdownTimeout)
	if len(f.HTTP.TrustedProxies) > 0 {
		cfg.HTTP.TrustedProxies = append([]string(nil), f.HTTP.TrustedProxies...)
	}

	str(f.Store.Backend, &cfg.Store.Backend)
	str(f.Store.Path, &cfg.Store.Path)

	str(f.Redis.Addr, &cfg.Redis.Addr)
	str(f.Redis.Password, &cfg.Redis.Password)
	if f.Redis.DB != nil {
		cfg.Redis.DB = *f.Redis.DB
	}

	str(f.Cache.Backend, &cfg.Cache.Backend)
	str(f.Cache.KeyPrefix, &cfg.Cache.KeyPrefix)
	dur("cache.janitorInterval", f.Cache.JanitorInterval, &cfg.Cache.JanitorInterval)

	str(f.Notify.Sink, &cfg.Notify.Sink)
	str(f.Notify.Stream, &cfg.Notify.Stream)
	if f.Notify.StreamMaxLen != nil {
		cfg.Notify.StreamMaxLen = *f.Notify.StreamMaxLen
	}
	if f.Notify.Buffer != nil {
		cfg.Notify.Buffer = *f.Notify.Buffer
	}
	if f.Notify.RatePerSec != nil {
		cfg.Notify.RatePerSec = *f.Notify.RatePerSec
	}
	if f.Notify.Burst != nil {
		cfg.Notify.Burst = *f.Notify.Burst
	}
	dur("notify.deliverTimeout", f.Notify.DeliverTimeout, &cfg.Notify.DeliverTimeout)

	dur("policy.completionCooldown", f.Policy.CompletionCooldown, &cfg.Policy.CompletionCooldown)
	if f.Policy.MinCancelDescription != nil {
		cfg.Policy.MinCancelDescription = *f.Policy.MinCancelDescription
	}
	if f.Policy.MaxReviewComment != nil {
		cfg.Policy.MaxReviewComment = *f.Policy.MaxReviewComment
	}
	if f.Policy.MaxEvidenceFiles != nil {
		cfg.Policy.MaxEvidenceFiles = *f.Policy.MaxEvidenceFiles
	}
	str(f.Policy.MentorRule, &cfg.Policy.MentorRule)
	if len(f.Policy.Thresholds) > 0 {
		cfg.Policy.Thresholds = make(map[string]int, len(f.Policy.Thresholds))
		for k, v := range f.Policy.Thresholds {
			cfg.Policy.Thresholds[k] = v
		}
	}

	str(f.Auth.Mode, &cfg.Auth.Mode)
	str(f.Auth.Header, &cfg.Auth.Header)
	str(f.Auth.JWTSecret, &cfg.Auth.JWTSecret)
	str(f.Auth.JWTIssuer, &cfg.Auth.JWTIssuer)
	str(f.Auth.JWTAudience, &cfg.Auth.JWTAudience)
	if len(f.Auth.ServiceActors) > 0 {
		cfg.Auth.ServiceActors = append([]string(nil), f.Auth.ServiceActors...)
	}

	if f.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *f.RateLimit.Enabled
	}
	if f.RateLimit.Requests != nil {
		cfg.RateLimit.Requests = *f.RateLimit.Requests
	}
	dur("rateLimit.window", f.RateLimit.Window, &cfg.RateLimit.Window)

	if f.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *f.Telemetry.Enabled
	}
	str(f.Telemetry.ServiceName, &cfg.Telemetry.ServiceName)
	str(f.Telemetry.Environment, &cfg.Telemetry.Environment)
	str(f.Telemetry.Exporter, &cfg.Telemetry.Exporter)
	str(f.Telemetry.Endpoint, &cfg.Telemetry.Endpoint)
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}

	return errors.Join(errs...)
}

// mergeEnvConfig applies SWAPD_* overrides on top of file and defaults.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString(EnvPrefix+"DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)

	cfg.HTTP.ListenAddr = l.envString(EnvPrefix+"LISTEN_ADDR", cfg.HTTP.ListenAddr)
	cfg.HTTP.ReadTimeout = l.envDuration(EnvPrefix+"READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = l.envDuration(EnvPrefix+"WRITE_TIMEOUT", cfg.HTTP.WriteTimeout)
	cfg.HTTP.IdleTimeout = l.envDuration(EnvPrefix+"IDLE_TIMEOUT", cfg.HTTP.IdleTimeout)
	cfg.HTTP.ShutdownTimeout = l.envDuration(EnvPrefix+"SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)
	cfg.HTTP.TrustedProxies = l.envList(EnvPrefix+"TRUSTED_PROXIES", cfg.HTTP.TrustedProxies)

	cfg.Store.Backend = l.envString(EnvPrefix+"STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = l.envString(EnvPrefix+"STORE_PATH", cfg.Store.Path)

	cfg.Redis.Addr = l.envString(EnvPrefix+"REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = l.envString(EnvPrefix+"REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = l.envInt(EnvPrefix+"REDIS_DB", cfg.Redis.DB)

	cfg.Cache.Backend = l.envString(EnvPrefix+"CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.KeyPrefix = l.envString(EnvPrefix+"CACHE_PREFIX", cfg.Cache.KeyPrefix)

	cfg.Notify.Sink = l.envString(EnvPrefix+"NOTIFY_SINK", cfg.Notify.Sink)
	cfg.Notify.Stream = l.envString(EnvPrefix+"NOTIFY_STREAM", cfg.Notify.Stream)
	cfg.Notify.Buffer = l.envInt(EnvPrefix+"NOTIFY_BUFFER", cfg.Notify.Buffer)
	cfg.Notify.RatePerSec = l.envFloat(EnvPrefix+"NOTIFY_RATE", cfg.Notify.RatePerSec)
	cfg.Notify.Burst = l.envInt(EnvPrefix+"NOTIFY_BURST", cfg.Notify.Burst)
	cfg.Notify.DeliverTimeout = l.envDuration(EnvPrefix+"NOTIFY_TIMEOUT", cfg.Notify.DeliverTimeout)

	cfg.Policy.CompletionCooldown = l.envDuration(EnvPrefix+"COMPLETION_COOLDOWN", cfg.Policy.CompletionCooldown)
	cfg.Policy.MinCancelDescription = l.envInt(EnvPrefix+"MIN_CANCEL_DESCRIPTION", cfg.Policy.MinCancelDescription)
	cfg.Policy.MaxReviewComment = l.envInt(EnvPrefix+"MAX_REVIEW_COMMENT", cfg.Policy.MaxReviewComment)
	cfg.Policy.MaxEvidenceFiles = l.envInt(EnvPrefix+"MAX_EVIDENCE_FILES", cfg.Policy.MaxEvidenceFiles)
	cfg.Policy.MentorRule = l.envString(EnvPrefix+"MENTOR_RULE", cfg.Policy.MentorRule)

	cfg.Auth.Mode = l.envString(EnvPrefix+"AUTH_MODE", cfg.Auth.Mode)
	cfg.Auth.Header = l.envString(EnvPrefix+"AUTH_HEADER", cfg.Auth.Header)
	cfg.Auth.JWTSecret = l.envString(EnvPrefix+"JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTIssuer = l.envString(EnvPrefix+"JWT_ISSUER", cfg.Auth.JWTIssuer)
	cfg.Auth.JWTAudience = l.envString(EnvPrefix+"JWT_AUDIENCE", cfg.Auth.JWTAudience)
	cfg.Auth.ServiceActors = l.envList(EnvPrefix+"SERVICE_ACTORS", cfg.Auth.ServiceActors)

	cfg.RateLimit.Enabled = l.envBool(EnvPrefix+"RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = l.envInt(EnvPrefix+"RATELIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration(EnvPrefix+"RATELIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = l.envString(EnvPrefix+"TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = l.envString(EnvPrefix+"TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.Exporter = l.envString(EnvPrefix+"TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}
