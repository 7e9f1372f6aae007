package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("OUTLINE_CONFIG_PATH", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	dataDir := filepath.Join(home, ".local", "share", "outline")
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, DocumentName), cfg.File)
	assert.False(t, cfg.FileSet)
	assert.Equal(t, filepath.Join(dataDir, TemplateName), cfg.TemplatePath)
	assert.Equal(t, filepath.Join(dataDir, "settings"), cfg.SettingsDir())
	assert.True(t, cfg.Backup)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 16, cfg.MaxQueueSize)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OUTLINE_CONFIG_PATH", t.TempDir())
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	t.Setenv("OUTLINE_PORT", "9999")
	t.Setenv("OUTLINE_DATA_DIR", dir)
	t.Setenv("OUTLINE_API_KEY", "secret")
	t.Setenv("OUTLINE_LOG_LEVEL", "DEBUG")
	t.Setenv("OUTLINE_BACKUP", "false")
	t.Setenv("OUTLINE_MAX_UPLOAD_BYTES", "-5")
	t.Setenv("OUTLINE_WORKER_COUNT", "0")
	t.Setenv("OUTLINE_JOB_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, filepath.Join(dir, DocumentName), cfg.File)
	assert.False(t, cfg.FileSet)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Backup)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes, "non-positive falls back to default")
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 90*time.Second, cfg.JobTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("OUTLINE_CONFIG_PATH", cfgDir)
	t.Chdir(t.TempDir())
	yaml := "port: \"7000\"\nfile: /tmp/notes.md\nlog_level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, ".outline.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "/tmp/notes.md", cfg.File)
	assert.True(t, cfg.FileSet, "a configured file wins over the remembered one")
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8090", LogLevel: "info", File: "x"}
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = "http"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Port = "70000"
	assert.Error(t, bad.Validate())

	bad = base
	bad.LogLevel = "chatty"
	assert.Error(t, bad.Validate())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
