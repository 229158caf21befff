// Global configuration stored under the user's config directory,
// shared by every registry on the machine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/toil/config.yml.
type GlobalConfig struct {
	RegistryPath string `yaml:"registry_path,omitempty"` // Default registry when not inside one
	ProductsPath string `yaml:"products_path,omitempty"` // Local products repository for sync
	ProductsURL  string `yaml:"products_url,omitempty"`  // Clone URL for sync
	GitHubToken  string `yaml:"github_token,omitempty"`  // Token for API sync
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "toil"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/toil/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
// The returned config is never nil, even on error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return &GlobalConfig{}, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &GlobalConfig{}, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.RegistryPath != "" {
		cfg.RegistryPath = ExpandTilde(cfg.RegistryPath)
	}
	if cfg.ProductsPath != "" {
		cfg.ProductsPath = ExpandTilde(cfg.ProductsPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetRegistryPath returns the pinned registry path from global config.
func GetRegistryPath() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.RegistryPath
}

// ResolveGitHubToken returns the GitHub token for API sync:
// TOIL_GITHUB_TOKEN, then GITHUB_TOKEN, then the global config.
func ResolveGitHubToken() string {
	if token := os.Getenv("TOIL_GITHUB_TOKEN"); token != "" {
		return token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.GitHubToken
}

// ErrRegistryPathNotConfigured is returned when registry_path is not set in config.
var ErrRegistryPathNotConfigured = errors.New("registry_path not configured")

// ErrRegistryPathNotExist is returned when the configured registry_path doesn't exist.
var ErrRegistryPathNotExist = errors.New("registry_path does not exist")

// ValidateRegistryPath returns the registry path from global config after
// validation. Returns an error if not configured or if the path is not a
// registry.
func ValidateRegistryPath() (string, error) {
	path := GetRegistryPath()
	if path == "" {
		return "", ErrRegistryPathNotConfigured
	}
	if !IsRepository(path) {
		return "", fmt.Errorf("%w: %s", ErrRegistryPathNotExist, path)
	}
	return path, nil
}

// HelpfulConfigMessage returns guidance printed when no registry is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No product registry found.

Tip: Create %s to set a default registry:
  mkdir -p %s
  echo 'registry_path: /path/to/your/registry' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
