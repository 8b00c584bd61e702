// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit: "+version.Commit)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swapd.yaml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--path", path)
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, "config", "init", "--path", path, "--force")
	require.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swapd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: "+dir+"\nstore:\n  backend: memory\n"), 0600))

	out, err := execute(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "store=memory")

	require.NoError(t, os.WriteFile(path, []byte("dataDir: "+dir+"\nstore:\n  backend: memory\nlogLevel: loud\nauth:\n  mode: jwt\n"), 0600))
	out, err = execute(t, "--config", path, "config", "validate")
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, out, "  - logLevel: ")
	assert.Contains(t, out, "  - auth.jwtSecret: ")

	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0600))
	_, err = execute(t, "--config", path, "config", "validate")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errInvalidConfig)
}

func TestStorageVerify(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	st, err := store.NewSqliteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	for _, mode := range []string{"quick", "full"} {
		t.Run(mode, func(t *testing.T) {
			out, err := execute(t, "storage", "verify", "--path", dbPath, "--mode", mode)
			require.NoError(t, err)
			assert.Contains(t, out, "Integrity verified: ok")
		})
	}
}

func TestStorageVerify_UsageErrors(t *testing.T) {
	_, err := execute(t, "storage", "verify", "--path", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, "storage", "verify", "--path", "x.db", "--mode", "deep")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(errCorrupt))
	assert.Equal(t, 2, exitCode(usageError{errors.New("bad flag")}))
}
