package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config represents the Parley configuration
type Config struct {
	// LLM settings
	Provider string `json:"provider"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`

	// Database settings
	Database string `json:"database,omitempty"`
	MaxRows  int    `json:"max_rows"`

	// Request handling
	QueueDepth         int  `json:"queue_depth"`
	ProgressIntervalMS int  `json:"progress_interval_ms"`
	ConfirmDestructive bool `json:"confirm_destructive"`

	// UI preferences
	Theme        string `json:"theme"`
	HistoryLimit int    `json:"history_limit"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider:           "ollama",
		Endpoint:           "http://localhost:11434",
		Model:              "llama3",
		MaxRows:            500,
		QueueDepth:         10,
		ProgressIntervalMS: 100,
		ConfirmDestructive: true,
		Theme:              "dark",
		HistoryLimit:       1000,
		LogLevel:           "info",
	}
}

// Dir returns the per-user data directory (~/.parley), creating it
// if needed. History, saved queries, logs, and the config file all
// live here.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".parley")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// Manager handles configuration loading and saving
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a configuration manager for the given file. An
// empty path means the default ~/.parley/config.json.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(dir, "config.json")
	}
	return &Manager{
		configPath: configPath,
		config:     DefaultConfig(),
	}, nil
}

// Load reads the configuration from disk, creating defaults if needed
func (m *Manager) Load() error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		// Create default config
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	expandEnvVars(config)
	repair(config)

	m.config = config
	return nil
}

// repair replaces out-of-range numeric values with defaults. A bad
// value in the file should not keep the program from starting.
func repair(config *Config) {
	defaults := DefaultConfig()
	if config.MaxRows < 1 {
		config.MaxRows = defaults.MaxRows
	}
	if config.QueueDepth < 1 {
		config.QueueDepth = defaults.QueueDepth
	}
	if config.ProgressIntervalMS < 1 {
		config.ProgressIntervalMS = defaults.ProgressIntervalMS
	}
	if config.HistoryLimit < 1 {
		config.HistoryLimit = defaults.HistoryLimit
	}
}

// Save writes the current configuration to disk. The file may hold an
// API key, so it is not world-readable.
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	return m.config
}

// Path returns the config file location
func (m *Manager) Path() string {
	return m.configPath
}

// Set updates a configuration value and saves
func (m *Manager) Set(key, value string) error {
	switch key {
	case "provider":
		m.config.Provider = value
	case "endpoint":
		m.config.Endpoint = value
	case "model":
		m.config.Model = value
	case "api_key":
		m.config.APIKey = value
	case "database":
		m.config.Database = value
	case "max_rows":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_rows must be a number: %w", err)
		}
		m.config.MaxRows = n
	case "queue_depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("queue_depth must be a number: %w", err)
		}
		m.config.QueueDepth = n
	case "confirm_destructive":
		m.config.ConfirmDestructive = value == "true"
	case "theme":
		m.config.Theme = value
	case "log_level":
		m.config.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return m.Save()
}

// expandEnvVars expands environment variables in string config values
func expandEnvVars(config *Config) {
	config.Provider = expandString(config.Provider)
	config.Endpoint = expandString(config.Endpoint)
	config.Model = expandString(config.Model)
	config.APIKey = expandString(config.APIKey)
	config.Database = expandString(config.Database)
	config.LogFile = expandString(config.LogFile)
}

// expandString expands environment variables in a string
// Supports $VAR and ${VAR} syntax
func expandString(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		// Return original if env var not found
		return match
	})
}
