package userconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server)
	assert.Empty(t, cfg.LastEmail("trialdesk.example.com"))

	server, err := GetServer()
	require.NoError(t, err)
	assert.Empty(t, server)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cfg := &Config{Server: "https://trialdesk.example.com"}
	cfg.RememberLogin("trialdesk.example.com", "ada@example.com", at)
	require.NoError(t, cfg.Save())

	path, err := Path()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://trialdesk.example.com", loaded.Server)
	assert.Equal(t, "ada@example.com", loaded.LastEmail("trialdesk.example.com"))
	assert.True(t, at.Equal(loaded.Accounts["trialdesk.example.com"].LastLogin))

	server, err := GetServer()
	require.NoError(t, err)
	assert.Equal(t, "https://trialdesk.example.com", server)
}

func TestLoad_Corrupt(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "trialdesk")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse user config file")
}
