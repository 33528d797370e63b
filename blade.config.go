package blade

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config file formats
const (
	ConfigFormatYAML = "yaml"
	ConfigFormatTOML = "toml"
)

// Config is the file form of the viewer options.
//
// Example (YAML):
//
//	paths: [views, shared/views]
//	compilation_path: /var/cache/blade
//	extensions:
//	  - name: .blade.html
//	    compiled: true
//	storage:
//	  driver: postgres
//	  dsn: postgres://localhost/views?sslmode=disable
//	cache:
//	  ttl: 10m
//	  max_entries: 500
//	params:
//	  site: Example
type Config struct {
	Paths           []string          `yaml:"paths" toml:"paths"`
	Extensions      []ExtensionConfig `yaml:"extensions" toml:"extensions"`
	CompilationPath string            `yaml:"compilation_path" toml:"compilation_path"`
	Storage         StorageConfig     `yaml:"storage" toml:"storage"`
	Cache           CacheFileConfig   `yaml:"cache" toml:"cache"`
	MaxExtendsDepth int               `yaml:"max_extends_depth" toml:"max_extends_depth"`
	Params          map[string]any    `yaml:"params" toml:"params"`
}

// ExtensionConfig declares one extension. Listing any extension replaces
// the default table.
type ExtensionConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Compiled bool   `yaml:"compiled" toml:"compiled"`
}

// StorageConfig selects the artifact store driver.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
}

// CacheFileConfig configures the memory layer. TTL uses time.ParseDuration
// syntax.
type CacheFileConfig struct {
	TTL        string `yaml:"ttl" toml:"ttl"`
	MaxEntries int    `yaml:"max_entries" toml:"max_entries"`
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) config file.
// Relative paths in the file resolve against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigRead, path, err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = ConfigFormatYAML
	case ".toml":
		format = ConfigFormatTOML
	default:
		return nil, NewConfigError(ErrMsgConfigFormat, path, nil)
	}

	cfg, err := ParseConfig(data, format)
	if err != nil {
		return nil, NewConfigError(ErrMsgInvalidConfig, path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// ParseConfig decodes config data in the given format.
func ParseConfig(data []byte, format string) (*Config, error) {
	cfg := &Config{}
	switch format {
	case ConfigFormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case ConfigFormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, NewConfigError(ErrMsgConfigFormat, format, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that cannot be checked by decoding.
func (c *Config) Validate() error {
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return NewConfigError(ErrMsgInvalidConfig, "cache.ttl", err)
		}
	}
	if c.MaxExtendsDepth < 0 {
		return NewConfigError(ErrMsgInvalidConfig, "max_extends_depth", nil)
	}
	for _, ext := range c.Extensions {
		if ext.Name == "" {
			return NewConfigError(ErrMsgInvalidConfig, "extensions.name", nil)
		}
	}
	return nil
}

func (c *Config) resolvePaths(base string) {
	for i, p := range c.Paths {
		if !filepath.IsAbs(p) {
			c.Paths[i] = filepath.Join(base, p)
		}
	}
	if c.CompilationPath != "" && !filepath.IsAbs(c.CompilationPath) {
		c.CompilationPath = filepath.Join(base, c.CompilationPath)
	}
	if c.Storage.Driver == StoreDriverNameFilesystem && c.Storage.DSN != "" && !filepath.IsAbs(c.Storage.DSN) {
		c.Storage.DSN = filepath.Join(base, c.Storage.DSN)
	}
}

// Options converts the config into viewer options.
func (c *Config) Options() []Option {
	var opts []Option
	if len(c.Paths) > 0 {
		opts = append(opts, WithPaths(c.Paths...))
	}
	if len(c.Extensions) > 0 {
		opts = append(opts, WithoutDefaultExtensions())
		for _, ext := range c.Extensions {
			opts = append(opts, WithExtension(ext.Name, ext.Compiled))
		}
	}
	if c.CompilationPath != "" {
		opts = append(opts, WithCompilationPath(c.CompilationPath))
	}
	if c.Storage.Driver != "" {
		opts = append(opts, WithStoreDriver(c.Storage.Driver, c.Storage.DSN))
	}
	if ttl, err := time.ParseDuration(c.Cache.TTL); err == nil {
		opts = append(opts, WithCacheTTL(ttl))
	}
	if c.Cache.MaxEntries > 0 {
		opts = append(opts, WithCacheMaxEntries(c.Cache.MaxEntries))
	}
	if c.MaxExtendsDepth > 0 {
		opts = append(opts, WithMaxExtendsDepth(c.MaxExtendsDepth))
	}
	if len(c.Params) > 0 {
		opts = append(opts, WithParams(c.Params))
	}
	return opts
}
