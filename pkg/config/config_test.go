package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Snapshot.Interval)
	assert.Equal(t, "https://kick.com", cfg.Kick.APIBase)
	assert.Equal(t, 20*time.Second, cfg.Kick.ViewerPollInterval)
	assert.Equal(t, "jpg", cfg.Screenshot.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.CaptureEnabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
session:
  channel: teststreamer
  duration: 2h
  inactivity: 5m
snapshot:
  interval: 2s
screenshot:
  on_snapshot: true
  embed: true
  embed_width: 320
session_log:
  path: /tmp/run.jsonl
  fsync: true
api:
  enabled: true
  address: ":9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "teststreamer", cfg.Session.Channel)
	assert.Equal(t, 2*time.Hour, cfg.Session.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Session.Inactivity)
	assert.Equal(t, 2*time.Second, cfg.Snapshot.Interval)
	assert.True(t, cfg.Screenshot.OnSnapshot)
	assert.Equal(t, 320, cfg.Screenshot.EmbedWidth)
	assert.True(t, cfg.SessionLog.Fsync)
	assert.Equal(t, ":9000", cfg.API.Address)
	assert.True(t, cfg.CaptureEnabled())

	// untouched sections keep their defaults
	assert.Equal(t, "https://kick.com", cfg.Kick.APIBase)

	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeTempConfig(t, "session: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KICKPULSE_CHANNEL", "envstreamer")
	t.Setenv("KICKPULSE_LOG_LEVEL", "debug")
	t.Setenv("KICKPULSE_API_BASE", "https://proxy.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "envstreamer", cfg.Session.Channel)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://proxy.example", cfg.Kick.APIBase)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Session.Channel = "teststreamer"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"chatroom id only", func(c *Config) {
			c.Session.Channel = ""
			c.Session.ChatroomID = "777"
		}, ""},
		{"no channel or chatroom", func(c *Config) {
			c.Session.Channel = ""
		}, "session.channel or session.chatroom_id"},
		{"malformed channel name", func(c *Config) {
			c.Session.Channel = "Bad Channel!"
		}, "session.channel"},
		{"non-numeric chatroom id", func(c *Config) {
			c.Session.ChatroomID = "abc"
		}, "session.chatroom_id"},
		{"negative duration", func(c *Config) {
			c.Session.Duration = -time.Second
		}, "session.duration"},
		{"zero snapshot interval", func(c *Config) {
			c.Snapshot.Interval = 0
		}, "snapshot.interval"},
		{"bad screenshot format", func(c *Config) {
			c.Screenshot.Format = "gif"
		}, "screenshot.format"},
		{"embed without width", func(c *Config) {
			c.Screenshot.Embed = true
			c.Screenshot.EmbedWidth = 0
		}, "screenshot.embed_width"},
		{"captures without timeout", func(c *Config) {
			c.Screenshot.OnSnapshot = true
			c.Screenshot.Timeout = 0
		}, "screenshot.timeout"},
		{"empty api base", func(c *Config) {
			c.Kick.APIBase = ""
		}, "kick.api_base"},
		{"empty pusher url", func(c *Config) {
			c.Kick.PusherURL = ""
		}, "kick.pusher_url"},
		{"api enabled without address", func(c *Config) {
			c.API.Enabled = true
			c.API.Address = ""
		}, "api.address"},
		{"prometheus without port", func(c *Config) {
			c.Monitoring.PrometheusEnabled = true
			c.Monitoring.PrometheusPort = 0
		}, "monitoring.prometheus_port"},
		{"tracing bad sample rate", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 2.0
		}, "tracing.sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCaptureEnabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.CaptureEnabled())

	cfg.Screenshot.Interval = 30 * time.Second
	assert.True(t, cfg.CaptureEnabled())

	cfg.Screenshot.Interval = 0
	cfg.Screenshot.OnSnapshot = true
	assert.True(t, cfg.CaptureEnabled())
}
