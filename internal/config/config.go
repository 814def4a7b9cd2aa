package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ToolType maps tool-name patterns to a display category
type ToolType struct {
	// Category is the value reported as toolType (e.g., "search", "terminal")
	Category string `yaml:"category"`

	// Color is the catppuccin color name used by the dashboard (e.g., "blue", "peach")
	Color string `yaml:"color"`

	// Patterns are tool names, matched case-insensitively (supports * wildcards)
	Patterns []string `yaml:"patterns"`
}

// Limits bounds how much of each transcript ends up in a snapshot
type Limits struct {
	ToolsPerSession    int `yaml:"tools_per_session"`
	CommandsPerSession int `yaml:"commands_per_session"`
	CommandLength      int `yaml:"command_length"`
}

// Liveness holds the age thresholds used to derive session status
type Liveness struct {
	// RunningWithin is the maximum registry age for a session to count as running
	RunningWithin time.Duration `yaml:"running_within"`

	// RecentWithin is the maximum registry age for a session to count as recently active
	RecentWithin time.Duration `yaml:"recent_within"`
}

// Server configures the HTTP/WebSocket transport
type Server struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Config holds the application configuration
type Config struct {
	// Theme is the catppuccin flavor used by the dashboard (mocha, macchiato, frappe, latte)
	Theme string `yaml:"theme"`

	// AgentName is the display name of the root node
	AgentName string `yaml:"agent_name"`

	// SessionsDir holds the registry file and one <sessionId>.jsonl per session
	SessionsDir string `yaml:"sessions_dir"`

	// RegistryFile is the registry file name inside SessionsDir
	RegistryFile string `yaml:"registry_file"`

	// RootSessionKey is the registry key of the main session
	RootSessionKey string `yaml:"root_session_key"`

	// ControlMarker tags synthetic user messages that must not show up as commands
	ControlMarker string `yaml:"control_marker"`

	// StrictCorrelation logs tool results that match no known call
	StrictCorrelation bool `yaml:"strict_correlation"`

	// Concurrency bounds how many transcripts are read at once
	Concurrency int `yaml:"concurrency"`

	Limits   Limits   `yaml:"limits"`
	Liveness Liveness `yaml:"liveness"`
	Server   Server   `yaml:"server"`

	// ToolTypes is checked in order, first match wins
	ToolTypes []ToolType `yaml:"tool_types"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Theme:          "mocha",
		AgentName:      "Cosmo",
		SessionsDir:    filepath.Join("~", ".openclaw", "agents", "main", "sessions"),
		RegistryFile:   "sessions.json",
		RootSessionKey: "agent:main:main",
		ControlMarker:  "[message_id:",
		Concurrency:    4,
		Limits: Limits{
			ToolsPerSession:    8,
			CommandsPerSession: 5,
			CommandLength:      200,
		},
		Liveness: Liveness{
			RunningWithin: time.Minute,
			RecentWithin:  5 * time.Minute,
		},
		Server: Server{
			Host:         "127.0.0.1",
			Port:         3458,
			PollInterval: 2 * time.Second,
			AllowedOrigins: []string{
				"https://cosmo-command.github.io",
				"http://localhost:3000",
				"http://localhost:3456",
				"https://*.trycloudflare.com",
			},
		},
		ToolTypes: DefaultToolTypes(),
	}
}

// DefaultToolTypes returns the built-in tool categorization table.
// Exact names come first so that e.g. web_fetch stays "browser" before the
// looser substring rules get a chance.
func DefaultToolTypes() []ToolType {
	return []ToolType{
		{Category: "search", Color: "blue", Patterns: []string{"web_search"}},
		{Category: "browser", Color: "sapphire", Patterns: []string{"browser", "web_fetch"}},
		{Category: "terminal", Color: "peach", Patterns: []string{"exec", "process"}},
		{Category: "file", Color: "green", Patterns: []string{"read", "write", "edit"}},
		{Category: "message", Color: "pink", Patterns: []string{"message"}},
		{Category: "vision", Color: "mauve", Patterns: []string{"image"}},
		{Category: "audio", Color: "flamingo", Patterns: []string{"tts"}},
		{Category: "canvas", Color: "teal", Patterns: []string{"canvas"}},
		{Category: "nodes", Color: "lavender", Patterns: []string{"nodes"}},
		{Category: "cron", Color: "yellow", Patterns: []string{"cron"}},
		{Category: "agent", Color: "mauve", Patterns: []string{"*sessions*"}},
		{Category: "weather", Color: "sky", Patterns: []string{"*weather*"}},
		{Category: "search", Color: "blue", Patterns: []string{"*search*"}},
		{Category: "browser", Color: "sapphire", Patterns: []string{"*browser*", "*fetch*"}},
		{Category: "file", Color: "green", Patterns: []string{"*file*", "*read*", "*write*", "*edit*"}},
		{Category: "terminal", Color: "peach", Patterns: []string{"*exec*"}},
		{Category: "vision", Color: "mauve", Patterns: []string{"*image*"}},
		{Category: "cron", Color: "yellow", Patterns: []string{"*cron*"}},
		{Category: "message", Color: "pink", Patterns: []string{"*message*"}},
		{Category: "audio", Color: "flamingo", Patterns: []string{"*tts*"}},
	}
}

// Load reads the config from a YAML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //nolint:gosec // config path from known locations
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// LoadFromDefaultPath attempts to load config from standard locations
func LoadFromDefaultPath() (*Config, error) {
	// Check in order: current dir, ~/.config/cosmo_command/, XDG_CONFIG_HOME
	paths := []string{
		"config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "cosmo_command", "config.yaml"),
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "cosmo_command", "config.yaml"))
	}

	for _, path := range paths {
		cleanPath := filepath.Clean(path)
		if _, err := os.Stat(cleanPath); err == nil { //nolint:gosec // config path from known locations
			return Load(cleanPath)
		}
	}

	return DefaultConfig(), nil
}

// normalize replaces zero or nonsensical values left by a partial config file
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.RegistryFile == "" {
		c.RegistryFile = def.RegistryFile
	}
	if c.RootSessionKey == "" {
		c.RootSessionKey = def.RootSessionKey
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Limits.ToolsPerSession <= 0 {
		c.Limits.ToolsPerSession = def.Limits.ToolsPerSession
	}
	if c.Limits.CommandsPerSession <= 0 {
		c.Limits.CommandsPerSession = def.Limits.CommandsPerSession
	}
	if c.Limits.CommandLength <= 0 {
		c.Limits.CommandLength = def.Limits.CommandLength
	}
	if c.Liveness.RunningWithin <= 0 {
		c.Liveness.RunningWithin = def.Liveness.RunningWithin
	}
	if c.Liveness.RecentWithin <= 0 {
		c.Liveness.RecentWithin = def.Liveness.RecentWithin
	}
	if c.Server.PollInterval <= 0 {
		c.Server.PollInterval = def.Server.PollInterval
	}
	if len(c.ToolTypes) == 0 {
		c.ToolTypes = def.ToolTypes
	}
}

// SessionsPath returns SessionsDir with a leading ~ expanded
func (c *Config) SessionsPath() string {
	return ExpandHome(c.SessionsDir)
}

// RegistryPath returns the full path of the session registry file
func (c *Config) RegistryPath() string {
	return filepath.Join(c.SessionsPath(), c.RegistryFile)
}

// ExpandHome expands a leading "~" to the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ToolCategory returns the category of the first table entry matching name, or "tool"
func (c *Config) ToolCategory(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "tool"
	}
	for i := range c.ToolTypes {
		if c.ToolTypes[i].Matches(name) {
			return c.ToolTypes[i].Category
		}
	}
	return "tool"
}

// ToolColor returns the color of the first table entry for category, or ""
func (c *Config) ToolColor(category string) string {
	for i := range c.ToolTypes {
		if c.ToolTypes[i].Category == category && c.ToolTypes[i].Color != "" {
			return c.ToolTypes[i].Color
		}
	}
	return ""
}

// Matches returns true if the tool name matches one of this entry's patterns
func (t *ToolType) Matches(name string) bool {
	for _, p := range t.Patterns {
		if MatchPattern(strings.ToLower(p), name) {
			return true
		}
	}
	return false
}

// MatchPattern checks if a pattern matches value; each * matches any run of characters
func MatchPattern(pattern, value string) bool {
	// Exact match
	if pattern == value {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	// e.g., "https://*.trycloudflare.com" or "*search*"
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, mid := range parts[1 : len(parts)-1] {
		idx := strings.Index(value, mid)
		if idx < 0 {
			return false
		}
		value = value[idx+len(mid):]
	}
	return strings.HasSuffix(value, last)
}

// global config instance
var (
	globalMu     sync.Mutex
	globalConfig *Config
)

// Global returns the global config instance, loading it if necessary.
// Safe for concurrent use.
func Global() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := LoadFromDefaultPath()
		if err != nil {
			cfg = DefaultConfig()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal sets the global config instance (useful for testing)
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}
