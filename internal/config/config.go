package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	Sources               []string `yaml:"sources"`
	Verbose               bool     `yaml:"verbose"`
	ArtworkTimeoutSeconds int      `yaml:"artwork_timeout_seconds"`
	MusicBrainzUserAgent  string   `yaml:"musicbrainz_user_agent"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Sources:               []string{"bandcamp", "musicbrainz"},
		Verbose:               false,
		ArtworkTimeoutSeconds: 10,
		MusicBrainzUserAgent:  "trackid/1.0.0 (https://github.com/trackid/trackid)",
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./trackid.yaml",
		"./trackid.yml",
		filepath.Join(home, ".config", "trackid", "config.yaml"),
		filepath.Join(home, ".config", "trackid", "config.yml"),
		filepath.Join(home, ".trackid.yaml"),
		filepath.Join(home, ".trackid.yml"),
	}

	for _, path := range locations {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "trackid", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "trackid", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one data source must be configured")
	}

	validSources := map[string]bool{"bandcamp": true, "musicbrainz": true}
	for _, s := range c.Sources {
		if !validSources[s] {
			return fmt.Errorf("unknown data source %q, valid sources: bandcamp, musicbrainz", s)
		}
	}

	if c.ArtworkTimeoutSeconds < 1 || c.ArtworkTimeoutSeconds > 120 {
		return fmt.Errorf("artwork_timeout_seconds must be between 1 and 120, got %d", c.ArtworkTimeoutSeconds)
	}

	if c.MusicBrainzUserAgent == "" {
		return fmt.Errorf("musicbrainz_user_agent cannot be empty")
	}

	return nil
}
