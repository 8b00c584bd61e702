// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/persistence/sqlite"
	"github.com/ManuGH/skillswap/internal/version"
)

// usageError maps to exit code 2.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

var errCorrupt = errors.New("integrity check failed")

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the session store",
	}
	cmd.AddCommand(newStorageVerifyCmd())
	return cmd
}

func newStorageVerifyCmd() *cobra.Command {
	var (
		path string
		mode string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check SQLite database integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode = strings.ToLower(strings.TrimSpace(mode))
			if mode != string(sqlite.VerifyQuick) && mode != string(sqlite.VerifyFull) {
				return usageError{fmt.Errorf("invalid mode %q, use 'quick' or 'full'", mode)}
			}
			if path == "" {
				configPath, _ := cmd.Flags().GetString("config")
				cfg, err := config.NewLoader(configPath, version.Version).Load()
				if err != nil {
					return err
				}
				if cfg.Store.Backend != store.BackendSQLite {
					return usageError{fmt.Errorf("store backend is %s; only sqlite can be verified", cfg.Store.Backend)}
				}
				path = cfg.StorePath()
			}
			if _, err := os.Stat(path); err != nil {
				return usageError{fmt.Errorf("database not found: %w", err)}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "Verifying integrity of %s (mode: %s)...\n", path, mode)
			issues, err := sqlite.VerifyIntegrity(cmd.Context(), path, sqlite.VerifyMode(mode))
			if err != nil {
				return fmt.Errorf("verification interrupted: %w", err)
			}
			if len(issues) > 0 {
				fmt.Fprintln(out, "CORRUPTION DETECTED:")
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				return errCorrupt
			}
			fmt.Fprintln(out, "Integrity verified: ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "SQLite database file (defaults to the configured store)")
	cmd.Flags().StringVar(&mode, "mode", string(sqlite.VerifyQuick), "verification mode: quick or full")
	return cmd
}
