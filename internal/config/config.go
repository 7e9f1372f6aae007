// Package config loads application settings from defaults, an optional
// .outline.yaml file and OUTLINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	defaultPort           = "8090"
	defaultDataDir        = "~/.local/share/outline"
	defaultLogLevel       = "info"
	defaultMaxUploadBytes = 10 << 20
	defaultWorkerCount    = 2
	defaultMaxQueueSize   = 16
	defaultJobTTL         = time.Hour

	// DocumentName is the default document file inside the data dir.
	DocumentName = "outline.text"
	// TemplateName is the default HTML export template inside the data dir.
	TemplateName = "outline.template.html"
)

type Config struct {
	Port string

	// Storage
	DataDir      string
	File         string
	TemplatePath string
	Backup       bool

	// FileSet is true when File was configured rather than defaulted, so it
	// wins over the document remembered in the settings.
	FileSet bool

	// Auth
	APIKey string

	// Logging
	LogLevel string

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool

	// Background imports
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
}

// SettingsDir is where the persisted window/selection settings live.
func (c Config) SettingsDir() string {
	return filepath.Join(c.DataDir, "settings")
}

// Load reads the configuration. A missing config file is not an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("port", defaultPort)
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("file", "")
	v.SetDefault("template_path", "")
	v.SetDefault("backup", true)
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("max_upload_bytes", defaultMaxUploadBytes)
	v.SetDefault("pdf_fallback_pdftotext", true)
	v.SetDefault("worker_count", defaultWorkerCount)
	v.SetDefault("max_queue_size", defaultMaxQueueSize)
	v.SetDefault("job_ttl", defaultJobTTL)

	v.SetConfigName(".outline") // .yaml is implicit
	v.SetEnvPrefix("OUTLINE")
	v.AutomaticEnv()

	if override := os.Getenv("OUTLINE_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dataDir, err := homedir.Expand(v.GetString("data_dir"))
	if err != nil {
		return Config{}, fmt.Errorf("expand data dir: %w", err)
	}

	cfg := Config{
		Port:                 v.GetString("port"),
		DataDir:              dataDir,
		File:                 v.GetString("file"),
		TemplatePath:         v.GetString("template_path"),
		Backup:               v.GetBool("backup"),
		APIKey:               v.GetString("api_key"),
		LogLevel:             strings.ToLower(v.GetString("log_level")),
		MaxUploadBytes:       v.GetInt64("max_upload_bytes"),
		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
		WorkerCount:          v.GetInt("worker_count"),
		MaxQueueSize:         v.GetInt("max_queue_size"),
		JobTTL:               v.GetDuration("job_ttl"),
	}

	cfg.FileSet = cfg.File != ""
	if cfg.File == "" {
		cfg.File = filepath.Join(cfg.DataDir, DocumentName)
	} else if cfg.File, err = homedir.Expand(cfg.File); err != nil {
		return Config{}, fmt.Errorf("expand file: %w", err)
	}
	if cfg.TemplatePath == "" {
		cfg.TemplatePath = filepath.Join(cfg.DataDir, TemplateName)
	} else if cfg.TemplatePath, err = homedir.Expand(cfg.TemplatePath); err != nil {
		return Config{}, fmt.Errorf("expand template path: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	return cfg, nil
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("OUTLINE_PORT must be a TCP port, got %q", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.File == "" {
		return fmt.Errorf("OUTLINE_FILE is required")
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("OUTLINE_LOG_LEVEL must be debug, info, warn or error, got %q", s)
}
