// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/skillswap/internal/config"
	"github.com/ManuGH/skillswap/internal/validate"
	"github.com/ManuGH/skillswap/internal/version"
)

var errInvalidConfig = errors.New("configuration is invalid")

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file populated with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteTemplate(path, force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return usageError{fmt.Errorf("%s already exists (use --force to overwrite)", path)}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "swapd.yaml", "destination file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.NewLoader(path, version.Version).Load()
			var verr validate.ValidationError
			if errors.As(err, &verr) {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "INVALID CONFIGURATION:")
				for _, e := range verr.Errors() {
					fmt.Fprintf(out, "  - %s: %s\n", e.Field, e.Message)
				}
				return errInvalidConfig
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: store=%s auth=%s listen=%s\n", cfg.Store.Backend, cfg.Auth.Mode, cfg.HTTP.ListenAddr)
			return nil
		},
	}
}
