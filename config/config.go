// Package config manages the bibtidy configuration stored in ~/.bibtidy/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bibtidy/normalize"
)

// FileName is the name of the configuration file inside the config dir.
const FileName = "config.yaml"

// Config holds every setting of a cleaning run. Keys missing from a
// config file keep their defaults.
type Config struct {
	// FieldsToDrop is removed from every entry.
	FieldsToDrop []string `yaml:"fields_to_drop" json:"fields_to_drop"`

	// DropByType adds fields to drop for specific entry types. Types set in
	// a config file replace the default list for that type only.
	DropByType map[string][]string `yaml:"drop_by_type,omitempty" json:"drop_by_type,omitempty"`

	// NameFields are reformatted as "I. I. Family".
	NameFields []string `yaml:"name_fields" json:"name_fields"`

	// NormalizePages collapses "--" in page ranges.
	NormalizePages bool `yaml:"normalize_pages" json:"normalize_pages"`

	LookupEnabled        bool    `yaml:"lookup_enabled" json:"lookup_enabled"`
	LookupTimeoutSeconds float64 `yaml:"lookup_timeout_seconds" json:"lookup_timeout_seconds"`
	LookupWorkers        int     `yaml:"lookup_workers" json:"lookup_workers"`
	LookupRate           float64 `yaml:"lookup_rate" json:"lookup_rate"`
	LookupMaxRetries     int     `yaml:"lookup_max_retries" json:"lookup_max_retries"`

	// LookupMailto identifies the caller to Crossref's polite pool.
	LookupMailto string `yaml:"lookup_mailto,omitempty" json:"lookup_mailto,omitempty"`

	// LookupRelaxedTypes accept the best-scored record without an exact
	// title match.
	LookupRelaxedTypes []string `yaml:"lookup_relaxed_types" json:"lookup_relaxed_types"`

	CacheEnabled  bool `yaml:"cache_enabled" json:"cache_enabled"`
	CacheTTLHours int  `yaml:"cache_ttl_hours" json:"cache_ttl_hours"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FieldsToDrop: []string{"timestamp", "abstract", "keywords", "owner"},
		DropByType: map[string][]string{
			"article": {"issn", "url"},
		},
		NameFields:           []string{"author", "editor"},
		NormalizePages:       true,
		LookupEnabled:        true,
		LookupTimeoutSeconds: 30,
		LookupWorkers:        4,
		LookupRate:           10,
		LookupMaxRetries:     2,
		LookupRelaxedTypes:   []string{"article"},
		CacheEnabled:         true,
		CacheTTLHours:        24,
	}
}

// Validate reports settings that cannot run.
func (c *Config) Validate() error {
	var errs []error
	if c.LookupWorkers < 1 {
		errs = append(errs, fmt.Errorf("lookup_workers must be at least 1, got %d", c.LookupWorkers))
	}
	if c.LookupTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("lookup_timeout_seconds must be positive, got %g", c.LookupTimeoutSeconds))
	}
	if c.LookupRate < 0 {
		errs = append(errs, fmt.Errorf("lookup_rate must not be negative, got %g", c.LookupRate))
	}
	if c.LookupMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("lookup_max_retries must not be negative, got %d", c.LookupMaxRetries))
	}
	if c.CacheTTLHours < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl_hours must not be negative, got %d", c.CacheTTLHours))
	}
	return errors.Join(errs...)
}

// DropSet returns the fields dropped from every entry.
func (c *Config) DropSet() normalize.DropSet {
	return normalize.NewDropSet(c.FieldsToDrop...)
}

// TypeDropSets returns the extra drop sets keyed by entry type.
func (c *Config) TypeDropSets() map[string]normalize.DropSet {
	sets := make(map[string]normalize.DropSet, len(c.DropByType))
	for entryType, names := range c.DropByType {
		sets[entryType] = normalize.NewDropSet(names...)
	}
	return sets
}

// LookupTimeout returns the per-lookup timeout.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds * float64(time.Second))
}

// CacheTTL returns how long cached lookup responses stay valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// configDirOverride holds a user-specified configuration directory.
// When empty, the default $HOME/.bibtidy is used.
var configDirOverride string

// SetConfigDir overrides the default configuration directory.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the bibtidy configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".bibtidy"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// CacheDir returns the directory for cached lookup responses.
func CacheDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache", "crossref"), nil
}

// Load reads the config file at path on top of the defaults. An empty
// path loads the default config file, falling back to the defaults when
// it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %q not found", path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Exists reports whether the default config file exists.
func Exists() bool {
	path, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to path, or to the default config file when
// path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
