package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Audio   AudioConfig   `yaml:"audio"`
	Monitor MonitorConfig `yaml:"monitor"`
	Session SessionConfig `yaml:"session"`
	Speech  SpeechConfig  `yaml:"speech"`
	Archive ArchiveConfig `yaml:"archive"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	BreakerFailures uint32 `yaml:"breaker_failures"`
	BreakerTimeout  string `yaml:"breaker_timeout"`
}

type AudioConfig struct {
	Source           string `yaml:"source"`
	HTTPAddr         string `yaml:"http_addr"`
	FileDir          string `yaml:"file_dir"`
	SampleRate       int    `yaml:"sample_rate"`
	Channels         int    `yaml:"channels"`
	ChunkInterval    string `yaml:"chunk_interval"`
	AuthToken        string `yaml:"auth_token"`
	EchoCancellation *bool  `yaml:"echo_cancellation"`
	NoiseSuppression *bool  `yaml:"noise_suppression"`
}

type MonitorConfig struct {
	Enabled          *bool   `yaml:"enabled"`
	Threshold        float64 `yaml:"threshold"`
	QuietDuration    string  `yaml:"quiet_duration"`
	MaxDuration      string  `yaml:"max_duration"`
	FallbackDuration string  `yaml:"fallback_duration"`
	FFTSize          int     `yaml:"fft_size"`
	Smoothing        float64 `yaml:"smoothing"`
	MinClipBytes     int     `yaml:"min_clip_bytes"`
}

type SessionConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Language    string `yaml:"language"`
}

// SpeechConfig selects the synthesizer. An empty command prints prompts to
// the console instead.
type SpeechConfig struct {
	Command string `yaml:"command"`
	Voice   string `yaml:"voice"`
}

type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	MaxFiles int    `yaml:"max_files"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:5000"
	}
	if c.Backend.Timeout == "" {
		c.Backend.Timeout = "30s"
	}
	if c.Backend.RetryAttempts == 0 {
		c.Backend.RetryAttempts = 3
	}
	if c.Backend.BreakerFailures == 0 {
		c.Backend.BreakerFailures = 5
	}
	if c.Backend.BreakerTimeout == "" {
		c.Backend.BreakerTimeout = "30s"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.ChunkInterval == "" {
		c.Audio.ChunkInterval = "250ms"
	}
	if c.Monitor.Enabled == nil {
		enabled := true
		c.Monitor.Enabled = &enabled
	}
	if c.Monitor.Threshold == 0 {
		c.Monitor.Threshold = 0.01
	}
	if c.Monitor.QuietDuration == "" {
		c.Monitor.QuietDuration = "800ms"
	}
	if c.Monitor.MaxDuration == "" {
		c.Monitor.MaxDuration = "5s"
	}
	if c.Monitor.FallbackDuration == "" {
		c.Monitor.FallbackDuration = "3s"
	}
	if c.Monitor.FFTSize == 0 {
		c.Monitor.FFTSize = 2048
	}
	if c.Monitor.Smoothing == 0 {
		c.Monitor.Smoothing = 0.8
	}
	if c.Monitor.MinClipBytes == 0 {
		c.Monitor.MinClipBytes = 1000
	}
	if c.Session.MaxAttempts == 0 {
		c.Session.MaxAttempts = 3
	}
	if c.Session.Language == "" {
		c.Session.Language = "es"
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = "./clips"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Duration parses value, falling back to def when it is not a valid
// duration.
func Duration(logger *slog.Logger, name, value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid duration, using default", "setting", name, "value", value, "default", def, "error", err)
		return def
	}
	return d
}
