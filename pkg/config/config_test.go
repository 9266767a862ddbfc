package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.SelectedProvider)
	assert.Equal(t, "http://localhost:9200", cfg.Retrieval.URL)
	assert.Equal(t, "k8s_security_documents", cfg.Retrieval.Index)
	assert.Equal(t, 15, cfg.Retrieval.TimeoutSeconds)
	assert.Equal(t, "trivy", cfg.Scanner.Binary)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.SelectedProvider = "anthropic"
	cfg.SelectedModel = "claude-sonnet-4-5"
	cfg.SetAPIKey("anthropic", "secret")
	cfg.Retrieval.URL = "http://es.internal:9200"
	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", loaded.SelectedProvider)
	assert.Equal(t, "claude-sonnet-4-5", loaded.SelectedModel)
	assert.Equal(t, "secret", loaded.GetAPIKey("anthropic"))
	assert.Equal(t, "http://es.internal:9200", loaded.Retrieval.URL)
	// Fields the user never set are backfilled from defaults.
	assert.Equal(t, "k8s_security_documents", loaded.Retrieval.Index)
}

func TestConfigFilePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, SaveConfig(cfg))

	// API keys live here: the file must not be group or world readable.
	info, err := os.Stat(filepath.Join(home, ".ksec-copilot", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
