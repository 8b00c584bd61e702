// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteTemplate when the target exists and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

const templateHeader = "# swapd configuration. Environment variables (SWAPD_*) override these values.\n"

// ToFileConfig maps a resolved config back onto the YAML shape. Secrets are
// never written.
func ToFileConfig(cfg AppConfig) FileConfig {
	f := FileConfig{
		DataDir:  cfg.DataDir,
		LogLevel: cfg.LogLevel,
		HTTP: HTTPFileConfig{
			ListenAddr:      cfg.HTTP.ListenAddr,
			ReadTimeout:     cfg.HTTP.ReadTimeout.String(),
			WriteTimeout:    cfg.HTTP.WriteTimeout.String(),
			IdleTimeout:     cfg.HTTP.IdleTimeout.String(),
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout.String(),
			TrustedProxies:  sortedCopy(cfg.HTTP.TrustedProxies),
		},
		Store: StoreFileConfig{
			Backend: cfg.Store.Backend,
			Path:    cfg.Store.Path,
		},
		Redis: RedisFileConfig{
			Addr: cfg.Redis.Addr,
			DB:   intPtr(cfg.Redis.DB),
		},
		Cache: CacheFileConfig{
			Backend:         cfg.Cache.Backend,
			KeyPrefix:       cfg.Cache.KeyPrefix,
			JanitorInterval: cfg.Cache.JanitorInterval.String(),
		},
		Notify: NotifyFileConfig{
			Sink:           cfg.Notify.Sink,
			Stream:         cfg.Notify.Stream,
			StreamMaxLen:   int64Ptr(cfg.Notify.StreamMaxLen),
			Buffer:         intPtr(cfg.Notify.Buffer),
			RatePerSec:     float64Ptr(cfg.Notify.RatePerSec),
			Burst:          intPtr(cfg.Notify.Burst),
			DeliverTimeout: cfg.Notify.DeliverTimeout.String(),
		},
		Policy: PolicyFileConfig{
			CompletionCooldown:   cfg.Policy.CompletionCooldown.String(),
			MinCancelDescription: intPtr(cfg.Policy.MinCancelDescription),
			MaxReviewComment:     intPtr(cfg.Policy.MaxReviewComment),
			MaxEvidenceFiles:     intPtr(cfg.Policy.MaxEvidenceFiles),
			MentorRule:           cfg.Policy.MentorRule,
			Thresholds:           cfg.Policy.Thresholds,
		},
		Auth: AuthFileConfig{
			Mode:          cfg.Auth.Mode,
			Header:        cfg.Auth.Header,
			JWTIssuer:     cfg.Auth.JWTIssuer,
			JWTAudience:   cfg.Auth.JWTAudience,
			ServiceActors: sortedCopy(cfg.Auth.ServiceActors),
		},
		RateLimit: RateLimitFileConfig{
			Enabled:  boolPtr(cfg.RateLimit.Enabled),
			Requests: intPtr(cfg.RateLimit.Requests),
			Window:   cfg.RateLimit.Window.String(),
		},
		Telemetry: TelemetryFileConfig{
			Enabled:      boolPtr(cfg.Telemetry.Enabled),
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: float64Ptr(cfg.Telemetry.SamplingRate),
		},
	}
	return f
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// RenderTemplate returns the YAML document for cfg.
func RenderTemplate(cfg AppConfig) ([]byte, error) {
	body, err := yaml.Marshal(ToFileConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte(templateHeader), body...), nil
}

// WriteTemplate atomically writes the default configuration to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	data, err := RenderTemplate(Defaults())
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
