// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTemplate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "swapd.yaml")
	require.NoError(t, WriteTemplate(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	f, err := ParseFile(data)
	require.NoError(t, err, "template must pass strict decoding")

	got := Defaults()
	require.NoError(t, mergeFileConfig(&got, f))
	if diff := cmp.Diff(Defaults(), got); diff != "" {
		t.Errorf("template does not round-trip (-want +got):\n%s", diff)
	}
}

func TestWriteTemplate_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swapd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0600))

	err := WriteTemplate(path, false)
	require.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, WriteTemplate(path, true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logLevel: info")
}

func TestRenderTemplate_OmitsSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "super-secret-value-that-is-long-enough"
	cfg.Redis.Password = "hunter2"

	data, err := RenderTemplate(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
	assert.NotContains(t, string(data), "hunter2")
}
