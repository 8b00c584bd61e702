// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/daemon"
	"github.com/ManuGH/skillswap/internal/health"
	xglog "github.com/ManuGH/skillswap/internal/log"
	"github.com/ManuGH/skillswap/internal/telemetry"
	"github.com/ManuGH/skillswap/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runServe(cmd.Context(), configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "swapd",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", configPath).
			Msg("failed to load configuration")
		return fmt.Errorf("load config: %w", err)
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel})

	source := "env+defaults"
	if configPath != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", configPath).
		Str("store_backend", cfg.Store.Backend).
		Str("auth_mode", cfg.Auth.Mode).
		Msg("loaded configuration")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
		return err
	}

	tp, err := telemetry.NewProvider(ctx, cfg.TelemetryProvider())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	rt, err := daemon.Bootstrap(ctx, cfg, xglog.WithComponent("runtime"))
	if err != nil {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		return fmt.Errorf("bootstrap: %w", err)
	}

	mgr, err := daemon.NewManager(cfg.HTTP, daemon.Deps{
		Logger:     logger,
		APIHandler: rt.Handler,
	})
	if err != nil {
		_ = rt.Close(context.WithoutCancel(ctx))
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		return err
	}
	// LIFO: the runtime closes before telemetry flushes.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("runtime", rt.Close)

	holder := config.NewConfigHolder(cfg, loader)
	app := daemon.NewApp(logger, mgr, holder, rt.Workflow, rt.Dispatcher, rt.Audit)

	logger.Info().
		Str("event", "startup.complete").
		Str("version", version.Version).
		Str("listen", cfg.HTTP.ListenAddr).
		Msg("swapd started")
	return app.Run(ctx)
}
