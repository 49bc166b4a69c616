package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultConcurrency bounds the generator when no concurrency is configured.
const DefaultConcurrency = 10

// Config represents the main configuration for dfc.
type Config struct {
	BaseDir   string           `toml:"base_dir"`
	LogDir    string           `toml:"log_dir"`
	Providers []ProviderConfig `toml:"providers"`
	Grants    []GrantConfig    `toml:"grants"`
	Generator GeneratorConfig  `toml:"generator"`
}

// ProviderConfig represents configuration for a documents provider.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ProviderConfig struct {
	Type      string `toml:"type"` // "memory", "local", "sqlite" or "s3"
	Authority string `toml:"authority"`

	// Local-specific fields (only used when Type == "local")
	LocalRoot string `toml:"local_root,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	SQLitePath string `toml:"sqlite_path,omitempty"` // file path or ":memory:"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"` // S3-compatible services; enables path-style addressing
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// GrantConfig is a URI permission held by the caller at startup.
type GrantConfig struct {
	URI  string `toml:"uri"`
	Mode string `toml:"mode"` // "r", "w" or "rw"
}

// GeneratorConfig configures the bulk test-file generator.
type GeneratorConfig struct {
	Concurrency int `toml:"concurrency"` // max concurrent creations; defaults to 10
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Generator: GeneratorConfig{Concurrency: DefaultConcurrency},
	}
}

// Validate checks that provider authorities are set and unique and that
// every provider names a known type.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Authority == "" {
			return fmt.Errorf("provider %d: authority required", i)
		}
		if seen[p.Authority] {
			return fmt.Errorf("provider %d: duplicate authority %s", i, p.Authority)
		}
		seen[p.Authority] = true

		switch p.Type {
		case "memory", "local", "sqlite", "s3":
		default:
			return fmt.Errorf("provider %s: unknown type %q", p.Authority, p.Type)
		}
	}
	if c.Generator.Concurrency < 0 {
		return fmt.Errorf("generator concurrency must not be negative")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Generator.Concurrency == 0 {
		cfg.Generator.Concurrency = DefaultConcurrency
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It fails if the file exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
