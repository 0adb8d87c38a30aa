package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvRegion       = "REGION"
)

// Loader handles loading configuration from files.
type Loader struct {
	configDir string
	getenv    func(string) string
}

// NewLoader creates a new configuration loader.
// If configDir is empty, it defaults to ~/.answerstream.
func NewLoader(configDir string) (*Loader, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".answerstream")
	}

	return &Loader{configDir: configDir, getenv: os.Getenv}, nil
}

// Load loads configuration from the specified file or default location and
// applies environment overrides. If the file doesn't exist, the defaults are
// used.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = l.DefaultConfigPath()
	}

	cfg := NewDefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
// Returns an error if the file doesn't exist.
func (l *Loader) LoadFromFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	return l.Load(configPath)
}

func (l *Loader) applyEnv(cfg *Config) {
	if v := l.getenv(EnvOpenAIAPIKey); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := l.getenv(EnvRegion); v != "" {
		cfg.Providers.Bedrock.Region = v
	}
}

// Save saves configuration to the specified file or default location.
func (l *Loader) Save(cfg *Config, configPath string) error {
	if configPath == "" {
		configPath = l.DefaultConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	content := "# answerstream configuration\n#\n" + string(data)

	// The file may hold an API key.
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigDir returns the configuration directory path.
func (l *Loader) ConfigDir() string {
	return l.configDir
}

// DefaultConfigPath returns the default configuration file path.
func (l *Loader) DefaultConfigPath() string {
	return filepath.Join(l.configDir, "config.yaml")
}

// DefaultDatabasePath returns the default metrics database path.
func (l *Loader) DefaultDatabasePath() string {
	return filepath.Join(l.configDir, "metrics.db")
}
