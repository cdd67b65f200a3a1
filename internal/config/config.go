// Package config provides environment and file configuration for the
// design assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	Provider        string
	Model           string
	MaxTokens       int

	// Session settings
	MaxTurns    int
	TurnTimeout time.Duration
	GracePeriod time.Duration

	// Follow-up policy. The marker phrases the engine scans assistant
	// text for are heuristics, kept replaceable rather than hard-coded.
	QuestionMarker   string
	GatheredMarker   string
	CompleteMarker   string
	OpenDimensionTag string

	// Storage
	TranscriptDir string

	// Output
	OutputDir string

	// Logging
	LogLevel    string
	LogEncoding string

	// Metrics
	MetricsAddr string
}

// fileSettings is the optional YAML settings file layout.
type fileSettings struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	MaxTurns    int    `yaml:"max_turns"`
	TurnTimeout string `yaml:"turn_timeout"`
	GracePeriod string `yaml:"grace_period"`

	Markers struct {
		Question      string `yaml:"question"`
		Gathered      string `yaml:"gathered"`
		Complete      string `yaml:"complete"`
		OpenDimension string `yaml:"open_dimension"`
	} `yaml:"markers"`

	TranscriptDir string `yaml:"transcript_dir"`
	OutputDir     string `yaml:"output_dir"`

	LogLevel    string `yaml:"log_level"`
	LogEncoding string `yaml:"log_encoding"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load reads configuration from the optional settings file, then lets
// environment variables override it.
func Load() (*Config, error) {
	cfg := defaults()

	path := getEnv("DESIGNER_CONFIG", defaultSettingsPath())
	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Provider:  "anthropic",
		MaxTokens: 4096,

		MaxTurns:    8,
		TurnTimeout: 120 * time.Second,
		GracePeriod: 3 * time.Second,

		QuestionMarker:   "QUESTION:",
		GatheredMarker:   "GATHERED:",
		CompleteMarker:   "DESIGN COMPLETE",
		OpenDimensionTag: "STILL NEEDED:",

		TranscriptDir: defaultTranscriptDir(),
		OutputDir:     ".",

		LogLevel:    "info",
		LogEncoding: "console",
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings file %s: %w", path, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parse settings file %s: %w", path, err)
	}

	setString(&cfg.Provider, fs.Provider)
	setString(&cfg.Model, fs.Model)
	if fs.MaxTokens > 0 {
		cfg.MaxTokens = fs.MaxTokens
	}
	if fs.MaxTurns > 0 {
		cfg.MaxTurns = fs.MaxTurns
	}
	setDuration(&cfg.TurnTimeout, fs.TurnTimeout)
	setDuration(&cfg.GracePeriod, fs.GracePeriod)
	setString(&cfg.QuestionMarker, fs.Markers.Question)
	setString(&cfg.GatheredMarker, fs.Markers.Gathered)
	setString(&cfg.CompleteMarker, fs.Markers.Complete)
	setString(&cfg.OpenDimensionTag, fs.Markers.OpenDimension)
	setString(&cfg.TranscriptDir, fs.TranscriptDir)
	setString(&cfg.OutputDir, fs.OutputDir)
	setString(&cfg.LogLevel, fs.LogLevel)
	setString(&cfg.LogEncoding, fs.LogEncoding)
	setString(&cfg.MetricsAddr, fs.MetricsAddr)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.Provider = getEnv("DESIGNER_PROVIDER", cfg.Provider)
	cfg.Model = getEnv("DESIGNER_MODEL", cfg.Model)
	cfg.MaxTokens = getIntEnv("DESIGNER_MAX_TOKENS", cfg.MaxTokens)
	cfg.MaxTurns = getIntEnv("DESIGNER_MAX_TURNS", cfg.MaxTurns)
	cfg.TurnTimeout = getDurationEnv("DESIGNER_TURN_TIMEOUT", cfg.TurnTimeout)
	cfg.GracePeriod = getDurationEnv("DESIGNER_GRACE_PERIOD", cfg.GracePeriod)
	cfg.TranscriptDir = getEnv("DESIGNER_TRANSCRIPT_DIR", cfg.TranscriptDir)
	cfg.OutputDir = getEnv("DESIGNER_OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = getEnv("DESIGNER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogEncoding = getEnv("DESIGNER_LOG_ENCODING", cfg.LogEncoding)
	cfg.MetricsAddr = getEnv("DESIGNER_METRICS_ADDR", cfg.MetricsAddr)
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "design-assistant", "settings.yml")
}

func defaultTranscriptDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "transcripts"
	}
	return filepath.Join(home, ".local", "share", "design-assistant", "transcripts")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
