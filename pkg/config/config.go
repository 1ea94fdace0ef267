package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"kickpulse/pkg/validation"
)

type Config struct {
	Session struct {
		Channel    string        `yaml:"channel"`
		ChatroomID string        `yaml:"chatroom_id"`
		Duration   time.Duration `yaml:"duration"`   // 0 = unlimited
		Inactivity time.Duration `yaml:"inactivity"` // 0 = disabled
	} `yaml:"session"`

	Snapshot struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"snapshot"`

	SessionLog struct {
		Path  string `yaml:"path"` // empty = derived from channel and start time
		Fsync bool   `yaml:"fsync"`
	} `yaml:"session_log"`

	Screenshot struct {
		Interval   time.Duration `yaml:"interval"` // 0 = interval trigger disabled
		OnSnapshot bool          `yaml:"on_snapshot"`
		Dir        string        `yaml:"dir"` // empty = derived from log path
		Format     string        `yaml:"format"`
		Max        int           `yaml:"max"` // 0 = keep everything
		Embed      bool          `yaml:"embed"`
		EmbedWidth int           `yaml:"embed_width"`
		StreamURL  string        `yaml:"stream_url"` // empty = resolved from the channel
		FFmpegPath string        `yaml:"ffmpeg_path"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"screenshot"`

	Kick struct {
		APIBase            string        `yaml:"api_base"`
		PusherURL          string        `yaml:"pusher_url"`
		Proxy              string        `yaml:"proxy"` // optional resolver proxy base URL
		ViewerPollInterval time.Duration `yaml:"viewer_poll_interval"`
		RequestTimeout     time.Duration `yaml:"request_timeout"`
	} `yaml:"kick"`

	API struct {
		Enabled bool   `yaml:"enabled"`
		Address string `yaml:"address"`
	} `yaml:"api"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

// CaptureEnabled reports whether any capture trigger is configured.
func (c *Config) CaptureEnabled() bool {
	return c.Screenshot.Interval > 0 || c.Screenshot.OnSnapshot
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Session.Channel == "" && c.Session.ChatroomID == "" {
		return fmt.Errorf("session.channel or session.chatroom_id must be set")
	}
	if c.Session.Channel != "" {
		if err := validation.ValidateChannelName(c.Session.Channel); err != nil {
			return fmt.Errorf("session.channel: %w", err)
		}
	}
	if c.Session.ChatroomID != "" {
		if err := validation.ValidateChatroomID(c.Session.ChatroomID); err != nil {
			return fmt.Errorf("session.chatroom_id: %w", err)
		}
	}
	if c.Session.Duration < 0 {
		return fmt.Errorf("session.duration must be >= 0")
	}
	if c.Session.Inactivity < 0 {
		return fmt.Errorf("session.inactivity must be >= 0")
	}

	if c.Snapshot.Interval <= 0 {
		return fmt.Errorf("snapshot.interval must be > 0")
	}

	if c.Screenshot.Interval < 0 {
		return fmt.Errorf("screenshot.interval must be >= 0")
	}
	if c.Screenshot.Format != "jpg" && c.Screenshot.Format != "png" {
		return fmt.Errorf("screenshot.format must be jpg or png")
	}
	if c.Screenshot.Max < 0 {
		return fmt.Errorf("screenshot.max must be >= 0")
	}
	if c.Screenshot.Embed && c.Screenshot.EmbedWidth <= 0 {
		return fmt.Errorf("screenshot.embed_width must be > 0 when embedding is enabled")
	}
	if c.CaptureEnabled() && c.Screenshot.Timeout <= 0 {
		return fmt.Errorf("screenshot.timeout must be > 0 when captures are enabled")
	}

	if err := validation.ValidateURL(c.Kick.APIBase); err != nil {
		return fmt.Errorf("kick.api_base: %w", err)
	}
	if err := validation.ValidateURL(c.Kick.PusherURL); err != nil {
		return fmt.Errorf("kick.pusher_url: %w", err)
	}
	if c.Kick.ViewerPollInterval <= 0 {
		return fmt.Errorf("kick.viewer_poll_interval must be > 0")
	}
	if c.Kick.RequestTimeout <= 0 {
		return fmt.Errorf("kick.request_timeout must be > 0")
	}

	if c.API.Enabled && c.API.Address == "" {
		return fmt.Errorf("api.address must not be empty when api.enabled=true")
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1]")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Snapshot.Interval = time.Second

	cfg.Screenshot.Format = "jpg"
	cfg.Screenshot.EmbedWidth = 160
	cfg.Screenshot.Timeout = 15 * time.Second

	cfg.Kick.APIBase = "https://kick.com"
	cfg.Kick.PusherURL = "wss://ws-us2.pusher.com/app/32cbd69e4b950bf97679?protocol=7&client=kickpulse&version=1.0&flash=false"
	cfg.Kick.ViewerPollInterval = 20 * time.Second
	cfg.Kick.RequestTimeout = 10 * time.Second

	cfg.API.Enabled = false
	cfg.API.Address = ":8080"

	cfg.Monitoring.PrometheusEnabled = false
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if channel := os.Getenv("KICKPULSE_CHANNEL"); channel != "" {
		c.Session.Channel = channel
	}
	if level := os.Getenv("KICKPULSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if base := os.Getenv("KICKPULSE_API_BASE"); base != "" {
		c.Kick.APIBase = base
	}
	if url := os.Getenv("KICKPULSE_PUSHER_URL"); url != "" {
		c.Kick.PusherURL = url
	}
	if path := os.Getenv("KICKPULSE_FFMPEG_PATH"); path != "" {
		c.Screenshot.FFmpegPath = path
	}
}
