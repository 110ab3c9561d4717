package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the escape controller and watcher.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Control API settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	EvalTimeoutMS    int

	// Page targeting
	PageURLFilter string

	// Signature table
	SignatureOverlay string // optional YAML file appended to the built-in table

	// Journal settings
	JournalEnabled    bool
	JournalDir        string
	JournalBufferSize int
	JournalMaxSizeMB  int

	// Evidence screenshots (empty disables)
	EvidenceDir string

	// Escape-failure notification (empty disables)
	NotifyEndpoint string

	// Logging
	LogLevel string
	LogFile  string

	// Local browser launch (for escape_watch)
	LaunchBrowser bool
	ProfileDir    string
	StartURL      string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:        getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:           getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		BindAddr:          getEnvOrDefault("ESCAPE_BIND_ADDR", "127.0.0.1:8288"),
		PortCandidates:    getEnvListOrDefault("ESCAPE_BIND_CANDIDATES", []string{"127.0.0.1:8289", "127.0.0.1:8290"}),
		PortAutoFallback:  getEnvBoolOrDefault("ESCAPE_BIND_AUTO_FALLBACK", true),
		EvalTimeoutMS:     getEnvIntOrDefault("ESCAPE_EVAL_TIMEOUT_MS", 5000),
		PageURLFilter:     getEnvOrDefault("ESCAPE_PAGE_URL_FILTER", ""),
		SignatureOverlay:  getEnvOrDefault("ESCAPE_SIGNATURE_OVERLAY", ""),
		JournalEnabled:    getEnvBoolOrDefault("ESCAPE_JOURNAL_ENABLED", true),
		JournalDir:        getEnvOrDefault("ESCAPE_JOURNAL_DIR", "./journal"),
		JournalBufferSize: getEnvIntOrDefault("ESCAPE_JOURNAL_BUFFER_SIZE", 1000),
		JournalMaxSizeMB:  getEnvIntOrDefault("ESCAPE_JOURNAL_MAX_SIZE_MB", 50),
		EvidenceDir:       getEnvOrDefault("ESCAPE_EVIDENCE_DIR", "./evidence"),
		NotifyEndpoint:    getEnvOrDefault("ESCAPE_NOTIFY_ENDPOINT", ""),
		LogLevel:          strings.ToLower(getEnvOrDefault("ESCAPE_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("ESCAPE_LOG_FILE", "logs/escape_controller.log"),
		LaunchBrowser:     getEnvBoolOrDefault("ESCAPE_LAUNCH_BROWSER", false),
		ProfileDir:        getEnvOrDefault("ESCAPE_PROFILE_DIR", "./browser_profile"),
		StartURL:          getEnvOrDefault("ESCAPE_START_URL", "about:blank"),
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
