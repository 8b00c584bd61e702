// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/log"
)

// PolicyApplier accepts a new workflow policy at runtime.
type PolicyApplier interface {
	ApplyPolicy(p model.Policy) error
}

// Runner is a background loop that stops when ctx is done.
type Runner interface {
	Run(ctx context.Context) error
}

// App owns the long-lived runtime lifecycle (watchers, reload wiring,
// dispatcher) and delegates server management to Manager.
type App struct {
	logger     zerolog.Logger
	manager    Manager
	cfgHolder  *config.ConfigHolder
	policy     PolicyApplier
	dispatcher Runner
	audit      *audit.Logger
	signals    bool
}

// NewApp creates a new App orchestrator. cfgHolder, policy and dispatcher may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, policy PolicyApplier, dispatcher Runner, auditLog *audit.Logger) *App {
	if auditLog == nil {
		auditLog = audit.NewLoggerWith(zerolog.Nop())
	}
	return &App{
		logger:     logger,
		manager:    manager,
		cfgHolder:  cfgHolder,
		policy:     policy,
		dispatcher: dispatcher,
		audit:      auditLog,
		signals:    true,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best-effort: startup does not fail if the watcher cannot be started.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.applyReload(cfg)
				}
			}
		})

		if a.signals {
			g.Go(func() error {
				a.cfgHolder.WatchSignals(ctx)
				return nil
			})
		}
	}

	if a.dispatcher != nil {
		g.Go(func() error { return a.dispatcher.Run(ctx) })
	}

	// Main server lifecycle.
	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

// applyReload re-applies the hot-reloadable sections of cfg.
func (a *App) applyReload(cfg config.AppConfig) {
	var failed []string
	if !log.SetLevel(cfg.LogLevel) {
		failed = append(failed, "logLevel")
	}
	if a.policy != nil {
		if err := a.policy.ApplyPolicy(cfg.WorkflowPolicy()); err != nil {
			a.logger.Error().Err(err).Str("event", "config.policy_rejected").Msg("reloaded workflow policy rejected")
			failed = append(failed, "policy")
		}
	}

	result := "success"
	details := map[string]string{"log_level": cfg.LogLevel, "mentor_rule": cfg.Policy.MentorRule}
	if len(failed) > 0 {
		result = "failure"
		details["failed"] = strings.Join(failed, ",")
	}
	a.audit.ConfigReload("config-watcher", result, details)
	a.logger.Info().Str("event", "config.applied").Str("result", result).Msg("applied reloaded configuration")
}
