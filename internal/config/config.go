package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Identity store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const DefaultGlamourStyle = "dark"

// Config holds all application configuration
type Config struct {
	// Backend settings
	BaseURL        string        `yaml:"base_url"`
	QueryPath      string        `yaml:"query_path"`
	ClearPath      string        `yaml:"clear_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Identity settings
	IdentityStore string `yaml:"identity_store"`
	IdentityPath  string `yaml:"identity_path"`
	IdentityKey   string `yaml:"identity_key"`

	// Session behaviour
	TypingInterval     time.Duration `yaml:"typing_interval"`
	ResetThreadOnClear bool          `yaml:"reset_thread_on_clear"`
	StartOpen          bool          `yaml:"start_open"`

	// Rendering
	GlamourStyle string `yaml:"glamour_style"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:5000",
		QueryPath:      "/api/chat/query",
		ClearPath:      "/api/clearChatHistory",
		RequestTimeout: 30 * time.Second,

		IdentityStore: StoreFile,
		IdentityPath:  expandHome("~/.chat-widget/identity.json"),
		IdentityKey:   "chatUserId",

		TypingInterval: 15 * time.Millisecond,

		GlamourStyle: DefaultGlamourStyle,

		LogLevel: "info",
		LogFile:  expandHome("~/.chat-widget/chat-widget.log"),
	}
}

// DefaultPath is where LoadFile looks when no explicit path is given.
func DefaultPath() string {
	return expandHome("~/.chat-widget/config.yaml")
}

// LoadFile overlays values from a YAML file. A missing file at the default
// location is not an error; a missing explicit file is.
func (c *Config) LoadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.IdentityPath = expandHome(c.IdentityPath)
	c.LogFile = expandHome(c.LogFile)
	return nil
}

// ApplyEnv overlays CHAT_WIDGET_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := GetEnv("CHAT_WIDGET_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := GetEnv("CHAT_WIDGET_IDENTITY_STORE"); v != "" {
		c.IdentityStore = v
	}
	if v := GetEnv("CHAT_WIDGET_IDENTITY_PATH"); v != "" {
		c.IdentityPath = expandHome(v)
	}
	if v := GetEnv("CHAT_WIDGET_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := GetEnv("CHAT_WIDGET_LOG_FILE"); v != "" {
		c.LogFile = expandHome(v)
	}
	if v := GetEnv("CHAT_WIDGET_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_WIDGET_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := GetEnv("CHAT_WIDGET_RESET_THREAD_ON_CLEAR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_WIDGET_RESET_THREAD_ON_CLEAR: %w", err)
		}
		c.ResetThreadOnClear = b
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q is not an absolute URL", c.BaseURL)
	}
	if !strings.HasPrefix(c.QueryPath, "/") || !strings.HasPrefix(c.ClearPath, "/") {
		return fmt.Errorf("endpoint paths must start with /")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.TypingInterval <= 0 {
		return fmt.Errorf("typing interval must be positive")
	}
	if c.IdentityKey == "" {
		return fmt.Errorf("identity key cannot be empty")
	}
	switch c.IdentityStore {
	case StoreFile, StoreSQLite:
		if c.IdentityPath == "" {
			return fmt.Errorf("identity path is required for the %s store", c.IdentityStore)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown identity store %q", c.IdentityStore)
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		return filepath.Join(getHomeDir(), path[1:])
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
