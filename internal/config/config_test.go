package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("USER", "tester")
	for _, k := range []string{
		"FILENAV_INTERNAL_ROOT", "FILENAV_SOURCE", "FILENAV_EXTERNAL_ROOTS", "FILENAV_MEDIA_DIRS",
		"FILENAV_START_STORAGE", "FILENAV_POLL_INTERVAL", "DATABASE_URL", "S3_MOUNT_PATH",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.local/share/filenav/files", cfg.InternalRoot)
	assert.Equal(t, SourceStatic, cfg.Source)
	assert.Empty(t, cfg.ExternalRoots)
	assert.Equal(t, []string{"/media/tester", "/run/media/tester"}, cfg.MediaDirs)
	assert.True(t, cfg.RequireMount)
	assert.Equal(t, -1, cfg.StartStorage)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FILENAV_INTERNAL_ROOT", "/data/internal")
	t.Setenv("FILENAV_EXTERNAL_ROOTS", "/mnt/sd0: :/mnt/sd1")
	t.Setenv("FILENAV_START_STORAGE", "1")
	t.Setenv("FILENAV_POLL_INTERVAL", "250ms")
	t.Setenv("FILENAV_REQUIRE_MOUNT", "false")
	t.Setenv("FILENAV_SOURCE", "static")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/internal", cfg.InternalRoot)
	assert.Equal(t, []string{"/mnt/sd0", "/mnt/sd1"}, cfg.ExternalRoots)
	assert.Equal(t, 1, cfg.StartStorage)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.False(t, cfg.RequireMount)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{InternalRoot: "/data", Source: SourceStatic, StartStorage: -1}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"relative internal root", func(c *Config) { c.InternalRoot = "data" }, false},
		{"unknown source", func(c *Config) { c.Source = "nfs" }, false},
		{"postgres without url", func(c *Config) { c.Source = SourcePostgres }, false},
		{"postgres with url", func(c *Config) {
			c.Source = SourcePostgres
			c.DatabaseURL = "postgres://localhost/filenav"
		}, true},
		{"relative external", func(c *Config) { c.ExternalRoots = []string{"sd"} }, false},
		{"relative s3 mount", func(c *Config) { c.S3MountPath = "s3" }, false},
		{"bad start storage", func(c *Config) { c.StartStorage = -2 }, false},
		{"negative poll", func(c *Config) { c.PollInterval = -time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
