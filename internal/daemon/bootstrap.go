// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the swapd runtime and owns its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/cache"
	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/domain/exchange/workflow"
	"github.com/ManuGH/skillswap/internal/health"
	"github.com/ManuGH/skillswap/internal/resilience"
)

const (
	// jwtLeeway tolerates clock skew between token issuer and swapd.
	jwtLeeway = 30 * time.Second

	redisBreakerThreshold = 5
	redisBreakerReset     = 30 * time.Second
)

// Runtime is the wired service graph for one process.
type Runtime struct {
	Config     config.AppConfig
	Store      store.Store
	Cache      cache.Cache
	Redis      *redis.Client
	Dispatcher *notify.Dispatcher
	Workflow   *workflow.Controller
	Health     *health.Manager
	Audit      *audit.Logger
	Auth       auth.Authenticator
	Handler    http.Handler

	closers []namedHook
}

// Bootstrap opens the store, connects optional Redis, and builds the workflow
// controller and HTTP handler described by cfg. Close releases everything
// Bootstrap opened, also on partial failure.
func Bootstrap(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Audit: audit.NewLoggerWith(logger)}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	rt.Store, err = store.OpenStore(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.onClose("store", func(context.Context) error { return rt.Store.Close() })

	if err := rt.connectRedis(ctx, cfg, logger); err != nil {
		return nil, err
	}
	rt.Cache = rt.buildCache(cfg, logger)

	sink, err := rt.buildSink(cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.Dispatcher = notify.NewDispatcher(sink, cfg.NotifyOptions(), logger)

	wfLogger := logger
	rt.Workflow, err = workflow.New(rt.Store, workflow.Options{
		Policy:        cfg.WorkflowPolicy(),
		Cache:         rt.Cache,
		Notifier:      rt.Dispatcher,
		Audit:         rt.Audit,
		Logger:        &wfLogger,
		ServiceActors: cfg.Auth.ServiceActors,
	})
	if err != nil {
		return nil, err
	}

	rt.Auth = buildAuthenticator(cfg.Auth)
	rt.Health = rt.buildHealth(cfg)

	rt.Handler, err = NewHandler(rt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) onClose(name string, fn ShutdownHook) {
	rt.closers = append(rt.closers, namedHook{name: name, hook: fn})
}

// Close releases resources in reverse acquisition order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rt.closers[i].name, err))
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func (rt *Runtime) connectRedis(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) error {
	needs := cfg.Cache.Backend == config.CacheRedis || cfg.Notify.Sink == config.SinkRedis || cfg.Notify.Sink == config.SinkBoth
	if !needs {
		return nil
	}
	if !cfg.Redis.Enabled() {
		return ErrRedisRequired
	}
	client := cache.NewRedisClient(cfg.CacheRedis())
	rt.onClose("redis", func(context.Context) error { return client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Int("db", cfg.Redis.DB).Msg("connected to redis")
	rt.Redis = client
	return nil
}

func (rt *Runtime) buildCache(cfg config.AppConfig, logger zerolog.Logger) cache.Cache {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return cache.NewRedisCache(rt.Redis, cfg.Cache.KeyPrefix, logger)
	case config.CacheMemory:
		mc := cache.NewMemoryCache(cfg.Cache.JanitorInterval)
		rt.onClose("cache", func(context.Context) error { return mc.Close() })
		return mc
	default:
		return cache.NoOp{}
	}
}

func (rt *Runtime) redisSink(cfg config.AppConfig) notify.Sink {
	return notify.BreakerSink{
		Sink:    notify.NewRedisSink(rt.Redis, cfg.Notify.Stream, cfg.Notify.StreamMaxLen),
		Breaker: resilience.NewCircuitBreaker("notify_redis", redisBreakerThreshold, redisBreakerReset),
	}
}

func (rt *Runtime) buildSink(cfg config.AppConfig, logger zerolog.Logger) (notify.Sink, error) {
	logSink := notify.LogSink{Logger: logger.With().Str("component", "notify").Logger()}
	switch cfg.Notify.Sink {
	case config.SinkLog, "":
		return logSink, nil
	case config.SinkRedis:
		return rt.redisSink(cfg), nil
	case config.SinkBoth:
		return notify.MultiSink{logSink, rt.redisSink(cfg)}, nil
	}
	return nil, fmt.Errorf("unknown notification sink %q", cfg.Notify.Sink)
}

func buildAuthenticator(cfg config.AuthConfig) auth.Authenticator {
	if cfg.Mode == config.AuthModeJWT {
		return auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   jwtLeeway,
		})
	}
	return auth.HeaderAuthenticator{Header: cfg.Header}
}

func (rt *Runtime) buildHealth(cfg config.AppConfig) *health.Manager {
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPingChecker("store", true, rt.Store.Ping))
	if rt.Redis != nil {
		client := rt.Redis
		hm.RegisterChecker(health.NewPingChecker("redis", cfg.Notify.Sink != config.SinkLog, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	hm.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))
	hm.RegisterChecker(health.NewQueueChecker("notify_queue", cfg.Notify.Buffer, rt.Dispatcher.Pending))
	return hm
}
