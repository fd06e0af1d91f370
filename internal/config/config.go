// Package config loads client configuration and sets up logging.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Talentline API endpoints
	APIURL string
	WSURL  string
	Token  string

	// Timing
	PollInterval   time.Duration
	RequestTimeout time.Duration
	AckTimeout     time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the shape of the optional YAML config file.
// Environment variables override anything set here.
type fileConfig struct {
	APIURL         string `yaml:"api_url"`
	WSURL          string `yaml:"ws_url"`
	Token          string `yaml:"token"`
	PollInterval   string `yaml:"poll_interval"`
	RequestTimeout string `yaml:"request_timeout"`
	AckTimeout     string `yaml:"ack_timeout"`
	LogFile        string `yaml:"log_file"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "talentline.yaml")
}

// Load reads configuration from the config file (if present) and the
// environment. Environment variables win over file values.
func Load() Config {
	return LoadFrom(DefaultPath())
}

// LoadFrom is Load with an explicit config file path (for testing).
func LoadFrom(path string) Config {
	var fc fileConfig
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// A malformed file is ignored rather than fatal; env and
			// defaults still apply.
			_ = yaml.Unmarshal(data, &fc)
		}
	}

	return Config{
		APIURL: getEnv("TALENTLINE_API_URL", fc.APIURL, "http://localhost:8080"),
		WSURL:  getEnv("TALENTLINE_WS_URL", fc.WSURL, "ws://localhost:8080/ws"),
		Token:  getEnv("TALENTLINE_TOKEN", fc.Token, ""),

		PollInterval:   getDuration("TALENTLINE_POLL_INTERVAL", fc.PollInterval, 30*time.Second),
		RequestTimeout: getDuration("TALENTLINE_REQUEST_TIMEOUT", fc.RequestTimeout, 15*time.Second),
		AckTimeout:     getDuration("TALENTLINE_ACK_TIMEOUT", fc.AckTimeout, 10*time.Second),

		LogFile:  getEnv("TALENTLINE_LOG_FILE", fc.LogFile, filepath.Join(os.TempDir(), "talentline.log")),
		LogLevel: parseLogLevel(getEnv("TALENTLINE_LOG_LEVEL", fc.LogLevel, "INFO")),
	}
}

func getEnv(key, fileVal, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

func getDuration(key, fileVal string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, fileVal, "")
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
