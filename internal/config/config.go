// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage source kinds.
const (
	SourceStatic   = "static"
	SourceMedia    = "media"
	SourcePostgres = "postgres"
)

// Config holds the navigator configuration.
type Config struct {
	// Storage roots
	InternalRoot  string
	Source        string
	ExternalRoots []string
	MediaDirs     []string
	AppDir        string
	RequireMount  bool
	StartStorage  int

	// Media notifier
	PollInterval time.Duration

	// Database (postgres source)
	DatabaseURL string

	// S3 (optional bucket mounted as an external root)
	S3MountPath string
	S3Endpoint  string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics endpoint; empty disables it
	MetricsAddr string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	user := os.Getenv("USER")

	cfg := &Config{
		InternalRoot:  envOr("FILENAV_INTERNAL_ROOT", filepath.Join(home, ".local", "share", "filenav", "files")),
		Source:        envOr("FILENAV_SOURCE", SourceStatic),
		ExternalRoots: envList("FILENAV_EXTERNAL_ROOTS", nil),
		MediaDirs: envList("FILENAV_MEDIA_DIRS", []string{
			filepath.Join("/media", user),
			filepath.Join("/run/media", user),
		}),
		AppDir:       envOr("FILENAV_APP_DIR", ""),
		RequireMount: envBool("FILENAV_REQUIRE_MOUNT", true),
		StartStorage: envInt("FILENAV_START_STORAGE", -1),
		PollInterval: envDuration("FILENAV_POLL_INTERVAL", 5*time.Second),
		DatabaseURL:  envOr("DATABASE_URL", ""),
		S3MountPath:  envOr("S3_MOUNT_PATH", ""),
		S3Endpoint:   envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:     envOr("S3_BUCKET", "filenav"),
		S3Prefix:     envOr("S3_PREFIX", ""),
		S3AccessKey:  envOr("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:  envOr("S3_SECRET_KEY", "minioadmin"),
		S3Region:     envOr("S3_REGION", "us-east-1"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "console"),
		MetricsAddr:  envOr("METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations Load cannot default away.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.InternalRoot) {
		return fmt.Errorf("FILENAV_INTERNAL_ROOT must be absolute: %q", c.InternalRoot)
	}
	switch c.Source {
	case SourceStatic, SourceMedia:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("unknown FILENAV_SOURCE: %s", c.Source)
	}
	for _, p := range c.ExternalRoots {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("external root must be absolute: %q", p)
		}
	}
	if c.S3MountPath != "" && !filepath.IsAbs(c.S3MountPath) {
		return fmt.Errorf("S3_MOUNT_PATH must be absolute: %q", c.S3MountPath)
	}
	if c.StartStorage < -1 {
		return fmt.Errorf("FILENAV_START_STORAGE must be -1 or a storage index, got %d", c.StartStorage)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("FILENAV_POLL_INTERVAL must not be negative")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envList splits a path list on os.PathListSeparator, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, string(os.PathListSeparator)) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
