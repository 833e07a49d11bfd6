package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheDisk   = "disk"
	CacheS3     = "s3"
)

// EnvCatalogToken overrides catalog.token when set.
const EnvCatalogToken = "CATALOG_TOKEN"

type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type CatalogConfig struct {
	URI       string        `yaml:"uri"`
	Warehouse string        `yaml:"warehouse"`
	Token     string        `yaml:"token"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	MaxObjectBytes int64         `yaml:"max_object_bytes"`
}

type CacheConfig struct {
	Backend      string        `yaml:"backend"`
	MaxEntries   int           `yaml:"max_entries"`
	Dir          string        `yaml:"dir"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Used by the s3 backend only.
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	cfg := &Config{
		Catalog: CatalogConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			FetchTimeout:   30 * time.Second,
			MaxObjectBytes: 64 << 20,
		},
		Cache: CacheConfig{
			Backend:      CacheMemory,
			MaxEntries:   10000,
			WriteTimeout: 10 * time.Second,
			Region:       "auto",
		},
	}
	cfg.Log.Level = "info"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if token := os.Getenv(EnvCatalogToken); token != "" {
		cfg.Catalog.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Catalog.URI == "" {
		errs = append(errs, errors.New("catalog.uri is required"))
	}
	if c.Catalog.Warehouse == "" {
		errs = append(errs, errors.New("catalog.warehouse is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Storage.MaxObjectBytes <= 0 {
		errs = append(errs, errors.New("storage.max_object_bytes must be positive"))
	}

	switch c.Cache.Backend {
	case CacheMemory:
		if c.Cache.MaxEntries <= 0 {
			errs = append(errs, errors.New("cache.max_entries must be positive"))
		}
	case CacheDisk:
		if c.Cache.Dir == "" {
			errs = append(errs, errors.New("cache.dir is required for the disk backend"))
		}
	case CacheS3:
		if c.Cache.Bucket == "" || c.Cache.Endpoint == "" {
			errs = append(errs, errors.New("cache.bucket and cache.endpoint are required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
