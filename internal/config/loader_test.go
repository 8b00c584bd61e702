// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/validate"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swapd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv("SWAPD_DATA_DIR", t.TempDir())

	cfg, err := NewLoader("", "v-test").Load()
	require.NoError(t, err)

	assert.Equal(t, "v-test", cfg.Version)
	assert.Equal(t, DefaultListenAddr, cfg.HTTP.ListenAddr)
	assert.Equal(t, AuthModeHeader, cfg.Auth.Mode)
	assert.Equal(t, model.DefaultPolicy(), cfg.WorkflowPolicy())
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, `
dataDir: `+dir+`
logLevel: debug
http:
  listenAddr: ":9000"
policy:
  completionCooldown: 2h
  mentorRule: offered_skill
  thresholds:
    mentor: 5
`)
	t.Setenv("SWAPD_LISTEN_ADDR", ":9100")

	l := NewLoader(path, "dev")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.HTTP.ListenAddr, "env wins over file")
	assert.Equal(t, "debug", cfg.LogLevel, "file wins over defaults")
	assert.Equal(t, 2*time.Hour, cfg.Policy.CompletionCooldown)

	p := cfg.WorkflowPolicy()
	assert.Equal(t, model.MentorByOfferedSkill, p.MentorRule)
	assert.Equal(t, 5, p.Thresholds[model.BadgeID("mentor")])

	assert.Contains(t, l.ConsumedEnvKeys, "SWAPD_LISTEN_ADDR")
	assert.Contains(t, l.ConsumedEnvKeys, "SWAPD_JWT_SECRET")
}

func TestLoad_StrictFile(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "listen: \":8080\"\n"},
		{"nested unknown key", "policy:\n  cooldown: 1h\n"},
		{"multiple documents", "logLevel: info\n---\nlogLevel: debug\n"},
		{"bad duration", "policy:\n  completionCooldown: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeFile(t, tt.body), "dev").Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_RejectsNonYAMLExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swapd.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	_, err := NewLoader(path, "dev").Load()
	require.ErrorContains(t, err, "only YAML supported")
}

func TestParseFile_Empty(t *testing.T) {
	f, err := ParseFile(nil)
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, *f)
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.DataDir = t.TempDir()
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"listen", func(c *AppConfig) { c.HTTP.ListenAddr = "nope" }, "http.listenAddr"},
		{"backend", func(c *AppConfig) { c.Store.Backend = "postgres" }, "store.backend"},
		{"redis cache without redis", func(c *AppConfig) { c.Cache.Backend = CacheRedis }, "cache.backend"},
		{"redis sink without redis", func(c *AppConfig) { c.Notify.Sink = SinkRedis }, "notify.sink"},
		{"policy", func(c *AppConfig) { c.Policy.MentorRule = "seniority" }, "policy"},
		{"unknown badge threshold", func(c *AppConfig) { c.Policy.Thresholds = map[string]int{"wizard": 1} }, "policy"},
		{"jwt secret", func(c *AppConfig) { c.Auth.Mode = AuthModeJWT; c.Auth.JWTSecret = "short" }, "auth.jwtSecret"},
		{"header", func(c *AppConfig) { c.Auth.Header = "" }, "auth.header"},
		{"rate limit", func(c *AppConfig) { c.RateLimit.Requests = 0 }, "rateLimit.requests"},
		{"sampling", func(c *AppConfig) { c.Telemetry.SamplingRate = 2 }, "telemetry.samplingRate"},
		{"exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "telemetry.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.Policy.Thresholds = nil
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors()))
			for _, e := range verr.Errors() {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestStorePath(t *testing.T) {
	cfg := AppConfig{DataDir: "/data", Store: StoreConfig{Path: "swapd.db"}}
	assert.Equal(t, "/data/swapd.db", cfg.StorePath())

	cfg.Store.Path = "/srv/other.db"
	assert.Equal(t, "/srv/other.db", cfg.StorePath())
}

func TestLoader_TrustedProxies(t *testing.T) {
	path := writeFile(t, "dataDir: "+t.TempDir()+"\nhttp:\n  trustedProxies: [\"10.0.0.0/8\", \"192.168.1.1\"]\n")
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.HTTP.TrustedProxies)

	t.Setenv("SWAPD_TRUSTED_PROXIES", "not-an-ip")
	_, err = NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.trustedProxies")
}
