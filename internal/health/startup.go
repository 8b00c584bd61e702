// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/log"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

// checkTargetedValidations performs runtime-critical validations that the
// static config validation cannot.
func checkTargetedValidations(logger zerolog.Logger, cfg config.AppConfig) error {
	// a. Listen address
	_, port, err := net.SplitHostPort(cfg.HTTP.ListenAddr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", cfg.HTTP.ListenAddr, err)
	}
	if portNum, err := strconv.Atoi(port); err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, cfg.HTTP.ListenAddr)
	}
	logger.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("✓ Listen address is valid")

	// b. Store location
	switch cfg.Store.Backend {
	case store.BackendMemory:
		logger.Warn().
			Str("store_backend", cfg.Store.Backend).
			Msg("in-memory store; sessions are not persistent across restarts")
	default:
		path := cfg.StorePath()
		parent := filepath.Dir(path)
		if cfg.Store.Backend == store.BackendBadger {
			parent = path
		}
		if err := os.MkdirAll(parent, 0750); err != nil {
			return fmt.Errorf("store path %s: %w", path, err)
		}
		logger.Info().Str("backend", cfg.Store.Backend).Str("path", path).Msg("✓ Store location is usable")
	}

	// c. Authentication
	if cfg.Auth.Mode == config.AuthModeHeader {
		logger.Warn().
			Str("header", cfg.Auth.Header).
			Msg("header authentication trusts the upstream gateway; do not expose swapd directly")
	} else if cfg.Auth.JWTIssuer == "" || cfg.Auth.JWTAudience == "" {
		logger.Warn().Msg("JWT issuer or audience not pinned; any token signed with the secret is accepted")
	}

	// d. Data directory under temp
	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; sessions may be lost on reboot")
	}

	return nil
}
