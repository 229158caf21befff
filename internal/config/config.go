// Package config handles registry repository configuration and layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents optional repository configuration stored in
// registry.yml at the registry root. Every field has a working default,
// so most registries carry no config file at all.
type Config struct {
	ProductsPath string   `yaml:"products_path,omitempty"` // Local products repository for sync
	ProductsURL  string   `yaml:"products_url,omitempty"`  // Clone URL when no local repository is found
	ProductsRepo string   `yaml:"products_repo,omitempty"` // owner/name for API sync
	Exclude      []string `yaml:"exclude,omitempty"`       // Pack folder glob patterns to skip during sync
}

// Registry layout. All paths are relative to the registry root.
const (
	RegistryFile = "registry.yml"

	IndexDir  = "index"
	IndexFile = "TOIL_Product_Index.md"

	RecordsDir = "records"

	ExportsDir       = "exports"
	LegacyExportFile = "product_index.json"
	V1ExportFile     = "product_index_v1.json"

	ToilDir  = ".toil"
	CacheDir = "cache"
	DBFile   = "registry.db"
)

// Sync defaults when neither registry.yml nor the global config pins
// a products repository.
const (
	DefaultProductsURL  = "https://github.com/tech4life-beyond/products.git"
	DefaultProductsRepo = "tech4life-beyond/products"
)

// RegistryConfigPath returns the path to registry.yml from a root path.
func RegistryConfigPath(root string) string {
	return filepath.Join(root, RegistryFile)
}

// IndexPath returns the path to the canonical index document.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDir, IndexFile)
}

// RecordsPath returns the path to the records directory.
func RecordsPath(root string) string {
	return filepath.Join(root, RecordsDir)
}

// LegacyExportPath returns the path to the legacy list export.
func LegacyExportPath(root string) string {
	return filepath.Join(root, ExportsDir, LegacyExportFile)
}

// V1ExportPath returns the path to the versioned export.
func V1ExportPath(root string) string {
	return filepath.Join(root, ExportsDir, V1ExportFile)
}

// CachePath returns the path to the cache directory.
func CachePath(root string) string {
	return filepath.Join(root, ToilDir, CacheDir)
}

// DBPath returns the path to the SQLite query cache.
func DBPath(root string) string {
	return filepath.Join(root, ToilDir, CacheDir, DBFile)
}

// IsRepository checks if the given path holds a product registry:
// either the canonical index document or a registry.yml.
func IsRepository(root string) bool {
	if info, err := os.Stat(IndexPath(root)); err == nil && !info.IsDir() {
		return true
	}
	if info, err := os.Stat(RegistryConfigPath(root)); err == nil && !info.IsDir() {
		return true
	}
	return false
}

// FindRepository walks up from the given path to find a registry root.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a product registry (no %s found)", filepath.Join(IndexDir, IndexFile))
		}
		abs = parent
	}
}

// ResolveRepository locates the registry root: walk up from start,
// then fall back to registry_path from the global config.
func ResolveRepository(start string) (string, error) {
	root, err := FindRepository(start)
	if err == nil {
		return root, nil
	}

	pinned, pinErr := ValidateRegistryPath()
	if pinErr == nil {
		return pinned, nil
	}
	return "", err
}

// Load reads registry.yml from the repository at the given root.
// A missing file yields a zero config, not an error.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(RegistryConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading registry config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing registry config: %w", err)
	}
	return &cfg, nil
}

// Save writes registry.yml to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding registry config: %w", err)
	}

	if err := os.WriteFile(RegistryConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing registry config: %w", err)
	}
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
