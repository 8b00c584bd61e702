// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/control/auth"
	controlhttp "github.com/ManuGH/skillswap/internal/control/http"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Version = "test"
	cfg.RateLimit.Enabled = false
	return cfg
}

func bootstrap(t *testing.T, cfg config.AppConfig) *Runtime {
	t.Helper()
	rt, err := Bootstrap(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func call(t *testing.T, h http.Handler, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != "" {
		req.Header.Set(controlhttp.HeaderActorID, actor)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBootstrap_SQLiteEndToEnd(t *testing.T) {
	rt := bootstrap(t, testConfig(t))
	assert.FileExists(t, filepath.Join(rt.Config.DataDir, "swapd.db"))

	w := call(t, rt.Handler, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, rt.Handler, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, rt.Handler, http.MethodPost, "/api/v1/sessions", "u1", `{"id":"s1","participantA":"u1","participantB":"u2"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(controlhttp.HeaderRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = call(t, rt.Handler, http.MethodPost, "/api/v1/sessions/s1/completion", "u2", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, rt.Dispatcher.Pending(), "counterparty notified")

	w = call(t, rt.Handler, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swapd_http_request_duration_seconds")
}

func TestBootstrap_MemoryBackendWithJWT(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendMemory
	cfg.Auth.Mode = config.AuthModeJWT
	cfg.Auth.JWTSecret = strings.Repeat("k", 32)
	cfg.Auth.JWTIssuer = "swap-web"
	rt := bootstrap(t, cfg)

	w := call(t, rt.Handler, http.MethodGet, "/api/v1/users/u1/badges", "u1", "")
	require.Equal(t, http.StatusUnauthorized, w.Code, "header identity is not trusted in jwt mode")

	token, err := auth.Sign([]byte(cfg.Auth.JWTSecret), "u1", "swap-web", "", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/badges", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	rt.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestBootstrap_RedisSinkAndCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendMemory
	cfg.Redis.Addr = mr.Addr()
	cfg.Cache.Backend = config.CacheRedis
	cfg.Notify.Sink = config.SinkRedis
	rt := bootstrap(t, cfg)
	require.NotNil(t, rt.Redis)

	call(t, rt.Handler, http.MethodPost, "/api/v1/sessions", "u1", `{"id":"s1","participantA":"u1","participantB":"u2"}`)
	w := call(t, rt.Handler, http.MethodPost, "/api/v1/sessions/s1/completion", "u1", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Dispatcher.Run(ctx) }()

	require.Eventually(t, func() bool {
		n, err := rt.Redis.XLen(context.Background(), notify.DefaultStream).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	w = call(t, rt.Handler, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Checks["redis"].Status)
	assert.Equal(t, "healthy", body.Checks["store"].Status)
}

func TestBootstrap_RedisRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Sink = config.SinkRedis
	_, err := Bootstrap(context.Background(), cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrRedisRequired)
}

func TestBootstrap_InvalidTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendMemory
	cfg.HTTP.TrustedProxies = []string{"nope"}
	_, err := Bootstrap(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestBootstrap_RateLimitAudited(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendMemory
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.Window = time.Minute

	var buf bytes.Buffer
	rt, err := Bootstrap(context.Background(), cfg, zerolog.New(&buf))
	require.NoError(t, err)
	defer rt.Close(context.Background())

	assert.Equal(t, http.StatusOK, call(t, rt.Handler, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(t, rt.Handler, http.MethodGet, "/healthz", "", "").Code)
	assert.Contains(t, buf.String(), "api.ratelimit")
}
