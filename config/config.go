// Package config loads engine.yaml from the project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = "engine.yaml"

// Environment variables overriding the file.
const (
	EnvRequestFile  = "ENGINE_REQUEST_FILE_PATH"
	EnvResponseFile = "ENGINE_RESPONSE_FILE_PATH"
	EnvProvider     = "ENGINE_PROVIDER"
	EnvLogLevel     = "ENGINE_LOG_LEVEL"
)

// Provider types.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGitHub    = "github"
	ProviderGemini    = "gemini"
	ProviderStatic    = "static"
)

// ValidProviderTypes lists every supported provider type.
var ValidProviderTypes = []string{
	ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGitHub, ProviderGemini, ProviderStatic,
}

// Config is the whole configuration file.
type Config struct {
	// DefaultProvider is used when no @set[provider=...] is in effect.
	DefaultProvider string                    `yaml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers"`

	Model   ModelConfig   `yaml:"model"`
	Editor  EditorConfig  `yaml:"editor"`
	VCS     VCSConfig     `yaml:"vcs"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProviderConfig configures one named model provider.
type ProviderConfig struct {
	Type  string `yaml:"type"`
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the key. Keys never live in the file.
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	// Format selects the role markers of flattened queries: xml or markdown.
	Format string `yaml:"format"`
	// Reply is the canned answer of static providers.
	Reply string `yaml:"reply"`
}

// APIKey reads the key from the configured environment variable.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// ModelConfig configures retries around model calls.
type ModelConfig struct {
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"`
}

// EditorConfig configures the editor lock handshake. Empty paths disable it.
type EditorConfig struct {
	RequestFile  string `yaml:"request_file"`
	ResponseFile string `yaml:"response_file"`
	Timeout      string `yaml:"timeout"`
	PollInterval string `yaml:"poll_interval"`
}

// Enabled reports whether both handshake files are configured.
func (e EditorConfig) Enabled() bool {
	return e.RequestFile != "" && e.ResponseFile != ""
}

// VCSConfig configures commits.
type VCSConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// EngineConfig configures the execution loop.
type EngineConfig struct {
	// MaxSteps bounds the steps of a single document within one execution.
	MaxSteps int `yaml:"max_steps"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is relative to the project root.
	File string `yaml:"file"`
}

// DefaultConfig returns the configuration used when engine.yaml is absent.
func DefaultConfig() *Config {
	return &Config{
		DefaultProvider: "openai",
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:      ProviderOpenAI,
				Model:     "gpt-4o-mini",
				APIKeyEnv: "OPENAI_API_KEY",
			},
		},
		Model: ModelConfig{
			Timeout:     "120s",
			MaxAttempts: 3,
			Backoff:     "2s",
		},
		Editor: EditorConfig{
			Timeout:      "30s",
			PollInterval: "100ms",
		},
		VCS: VCSConfig{
			Enabled:     true,
			AuthorName:  "engine",
			AuthorEmail: "engine@local",
		},
		Engine: EngineConfig{
			MaxSteps: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join("log", "engine.log"),
		},
	}
}

// Load reads path over DefaultConfig. A missing file yields the defaults. Environment
// overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		// Configured providers replace the default ones instead of merging with them.
		defaults := cfg.Providers
		cfg.Providers = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if len(cfg.Providers) == 0 {
			cfg.Providers = defaults
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFromRoot loads FileName in root.
func LoadFromRoot(root string) (*Config, error) {
	return Load(filepath.Join(root, FileName))
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv(EnvRequestFile); path != "" {
		c.Editor.RequestFile = path
	}
	if path := os.Getenv(EnvResponseFile); path != "" {
		c.Editor.ResponseFile = path
	}
	if provider := os.Getenv(EnvProvider); provider != "" {
		c.DefaultProvider = provider
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// GetModelTimeout returns the per-attempt model call timeout.
func (c *Config) GetModelTimeout() time.Duration {
	return parseDuration(c.Model.Timeout, 120*time.Second)
}

// GetModelBackoff returns the base delay between model call attempts.
func (c *Config) GetModelBackoff() time.Duration {
	return parseDuration(c.Model.Backoff, 2*time.Second)
}

// GetEditorTimeout returns how long to wait for the editor to acknowledge a request.
func (c *Config) GetEditorTimeout() time.Duration {
	return parseDuration(c.Editor.Timeout, 30*time.Second)
}

// GetEditorPollInterval returns how often the response file is polled.
func (c *Config) GetEditorPollInterval() time.Duration {
	return parseDuration(c.Editor.PollInterval, 100*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ProviderNames returns the configured provider names, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return fmt.Errorf("default provider %q is not configured (configured: %s)",
			c.DefaultProvider, strings.Join(c.ProviderNames(), ", "))
	}
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		if !isValidType(p.Type) {
			return fmt.Errorf("provider %s: invalid type %q (valid: %v)", name, p.Type, ValidProviderTypes)
		}
		if p.Type != ProviderStatic && p.Model == "" {
			return fmt.Errorf("provider %s: model is required", name)
		}
		if p.Format != "" && p.Format != "xml" && p.Format != "markdown" && p.Format != "md" {
			return fmt.Errorf("provider %s: invalid format %q", name, p.Format)
		}
	}
	if c.Model.MaxAttempts < 1 {
		return fmt.Errorf("model.max_attempts must be at least 1")
	}
	if c.Engine.MaxSteps < 1 {
		return fmt.Errorf("engine.max_steps must be at least 1")
	}
	if (c.Editor.RequestFile == "") != (c.Editor.ResponseFile == "") {
		return fmt.Errorf("editor.request_file and editor.response_file must be set together")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return nil
}

func isValidType(t string) bool {
	for _, v := range ValidProviderTypes {
		if t == v {
			return true
		}
	}
	return false
}
