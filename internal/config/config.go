// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/auraflow/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete auraflow configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend configuration
	Backend BackendConfig `toml:"backend"`

	// Chat turn parameters forwarded to the native backend
	Chat ChatConfig `toml:"chat"`

	// Replay (offline transcript playback) configuration
	Replay ReplayConfig `toml:"replay"`

	// Conversation storage configuration
	Storage StorageConfig `toml:"storage"`

	// Serve command configuration
	Server ServerConfig `toml:"server"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// BackendConfig selects the chat backend.
type BackendConfig struct {
	// BaseURL is the chat backend URL. Empty means discover a local
	// LM Studio instance at startup.
	BaseURL string `toml:"base_url"`
	// Discover enables LM Studio probing when BaseURL is empty.
	Discover bool `toml:"discover"`
}

// ChatConfig contains the native backend's turn parameters. Forwarded
// opaquely in the request body.
type ChatConfig struct {
	MaxPlanIterations int  `toml:"max_plan_iterations"`
	MaxStepNum        int  `toml:"max_step_num"`
	AutoAcceptedPlan  bool `toml:"auto_accepted_plan"`
	EnableDeepThink   bool `toml:"enable_deep_thinking"`
	// ReportStyle is one of "academic", "popular_science", "news",
	// "social_media".
	ReportStyle string `toml:"report_style"`
}

// ReplayConfig controls offline transcript playback.
type ReplayConfig struct {
	// Enabled bypasses the network entirely and plays transcripts.
	Enabled bool `toml:"enabled"`
	// Transcript is an explicit transcript file path.
	Transcript string `toml:"transcript"`
	// FastForward collapses playback delays to zero.
	FastForward bool `toml:"fast_forward"`
}

// StorageConfig selects the conversation persistence backend.
type StorageConfig struct {
	// Backend is one of "file", "sqlite", "encrypted".
	Backend string `toml:"backend"`
	// Path overrides the default state file/database location.
	Path string `toml:"path"`
}

// ServerConfig configures the local SSE bridge server.
type ServerConfig struct {
	Listen string `toml:"listen"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
	// MaxBodyBytes caps inbound request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is the markdown rendering style ("dark", "light", "auto").
	Theme string `toml:"theme"`
	// SidebarWidth is the conversation sidebar width in columns.
	SidebarWidth int `toml:"sidebar_width"`
	// ShowAgentNames prefixes streamed content with the emitting agent.
	ShowAgentNames bool `toml:"show_agent_names"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// ReportStyles are the accepted report_style values.
var ReportStyles = []string{"academic", "popular_science", "news", "social_media"}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			Discover: true,
		},
		Chat: ChatConfig{
			MaxPlanIterations: 1,
			MaxStepNum:        3,
			AutoAcceptedPlan:  false,
			ReportStyle:       "academic",
		},
		Replay: ReplayConfig{},
		Storage: StorageConfig{
			Backend: "file",
		},
		Server: ServerConfig{
			Listen:       "127.0.0.1:8734",
			RateLimit:    10,
			RateBurst:    20,
			MaxBodyBytes: 1 << 20,
		},
		UI: UIConfig{
			Theme:          "auto",
			SidebarWidth:   28,
			ShowAgentNames: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the auraflow configuration directory (~/.auraflow).
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".auraflow"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StatePath resolves the conversation state location for the configured
// storage backend.
func (c *Config) StatePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	switch c.Storage.Backend {
	case "sqlite":
		return filepath.Join(dir, "conversations.db"), nil
	case "encrypted":
		return filepath.Join(dir, "conversations.enc"), nil
	default:
		return filepath.Join(dir, "conversations.json"), nil
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, applies environment overrides, fills
// defaults, and validates. A missing file is not an error; defaults are
// used.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Chat.MaxPlanIterations == 0 {
		cfg.Chat.MaxPlanIterations = defaults.Chat.MaxPlanIterations
	}
	if cfg.Chat.MaxStepNum == 0 {
		cfg.Chat.MaxStepNum = defaults.Chat.MaxStepNum
	}
	if cfg.Chat.ReportStyle == "" {
		cfg.Chat.ReportStyle = defaults.Chat.ReportStyle
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = defaults.Server.RateBurst
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.SidebarWidth == 0 {
		cfg.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	// AURAFLOW_BACKEND_URL
	if u := os.Getenv("AURAFLOW_BACKEND_URL"); u != "" {
		c.Backend.BaseURL = u
	}

	// AURAFLOW_REPLAY
	if replay := os.Getenv("AURAFLOW_REPLAY"); replay != "" {
		c.Replay.Enabled = isTruthy(replay)
	}

	// AURAFLOW_FAST_FORWARD
	if ff := os.Getenv("AURAFLOW_FAST_FORWARD"); ff != "" {
		c.Replay.FastForward = isTruthy(ff)
	}

	// AURAFLOW_REPORT_STYLE
	if style := os.Getenv("AURAFLOW_REPORT_STYLE"); style != "" {
		c.Chat.ReportStyle = style
	}

	// AURAFLOW_STORAGE
	if backend := os.Getenv("AURAFLOW_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}

	// AURAFLOW_LISTEN
	if listen := os.Getenv("AURAFLOW_LISTEN"); listen != "" {
		c.Server.Listen = listen
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return ValidationError{Field: "backend.base_url", Message: "must be an http or https URL"}
		}
	}

	if !contains(ReportStyles, c.Chat.ReportStyle) {
		return ValidationError{
			Field:   "chat.report_style",
			Message: fmt.Sprintf("must be one of %s", strings.Join(ReportStyles, ", ")),
		}
	}
	if c.Chat.MaxPlanIterations < 1 {
		return ValidationError{Field: "chat.max_plan_iterations", Message: "must be at least 1"}
	}
	if c.Chat.MaxStepNum < 1 {
		return ValidationError{Field: "chat.max_step_num", Message: "must be at least 1"}
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "encrypted":
	default:
		return ValidationError{Field: "storage.backend", Message: "must be one of file, sqlite, encrypted"}
	}

	if c.Server.RateLimit < 0 {
		return ValidationError{Field: "server.rate_limit", Message: "must not be negative"}
	}
	if c.Server.MaxBodyBytes < 0 {
		return ValidationError{Field: "server.max_body_bytes", Message: "must not be negative"}
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be one of dark, light, auto"}
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Config files are written with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# auraflow configuration file\n")
	buf.WriteString("# Generated by auraflow - edit with care\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFileWithDir(path, []byte(buf.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ChatParams flattens the chat settings into the opaque parameter map
// forwarded to the native backend.
func (c *Config) ChatParams() map[string]any {
	return map[string]any{
		"max_plan_iterations":  c.Chat.MaxPlanIterations,
		"max_step_num":         c.Chat.MaxStepNum,
		"auto_accepted_plan":   c.Chat.AutoAcceptedPlan,
		"enable_deep_thinking": c.Chat.EnableDeepThink,
		"report_style":         c.Chat.ReportStyle,
	}
}
