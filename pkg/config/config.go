// Package config loads the settings shared by the catalog proxy and CLI.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML
// file, an optional .env file, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/rrautos/catalog-client/pkg/cache"
	"github.com/rrautos/catalog-client/pkg/catalog"
	"github.com/rrautos/catalog-client/pkg/logging"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Config is the top-level configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Sitemap SitemapConfig `yaml:"sitemap"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the upstream commerce API.
type APIConfig struct {
	BaseURL        string            `yaml:"base_url"`
	ToDate         string            `yaml:"to_date"`
	Locale         string            `yaml:"locale"`
	PageSize       int               `yaml:"page_size"`
	Headers        map[string]string `yaml:"headers"`
	Timeout        time.Duration     `yaml:"timeout"`
	MaxRetries     int               `yaml:"max_retries"`
	InitialBackoff time.Duration     `yaml:"initial_backoff"`
	ScanPageSize   int               `yaml:"scan_page_size"`
	MaxScanPages   int               `yaml:"max_scan_pages"`
}

// CacheConfig configures the slug cache. An empty RedisURL keeps it in
// process.
type CacheConfig struct {
	RedisURL  string        `yaml:"redis_url"`
	TTL       time.Duration `yaml:"ttl"`
	Namespace string        `yaml:"namespace"`
}

// ServerConfig configures the HTTP proxy.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SitemapConfig configures sitemap generation.
type SitemapConfig struct {
	SiteURL   string `yaml:"site_url"`
	ItemsPath string `yaml:"items_path"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	retry := catalog.DefaultRetryConfig()
	client := catalog.DefaultConfig("")

	return Config{
		API: APIConfig{
			Locale:         client.Locale,
			PageSize:       catalog.DefaultPageSize,
			Headers:        catalog.DefaultHeaders(),
			Timeout:        client.Timeout,
			MaxRetries:     retry.MaxRetries,
			InitialBackoff: retry.InitialBackoff,
			ScanPageSize:   client.ScanPageSize,
			MaxScanPages:   client.MaxScanPages,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Sitemap: SitemapConfig{
			SiteURL:   "http://localhost:8080",
			ItemsPath: "/vehiculos",
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load reads path (skipped when empty), then DotEnvFile, then the
// environment.
func Load(path string) (Config, error) {
	return load(path, DotEnvFile, os.LookupEnv)
}

// lookupFunc has the signature of os.LookupEnv.
type lookupFunc func(key string) (string, bool)

func load(path, dotenvPath string, lookup lookupFunc) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	dotenv, err := readDotEnv(dotenvPath)
	if err != nil {
		return Config{}, err
	}

	// Process environment wins over .env, as godotenv.Load does.
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnvOverrides(env); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyEnvOverrides(env lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("CATALOG_API_BASE_URL", &c.API.BaseURL)
	str("CATALOG_API_TO_DATE", &c.API.ToDate)
	str("CATALOG_LOCALE", &c.API.Locale)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("PORT", &c.Server.Port)
	str("SITE_URL", &c.Sitemap.SiteURL)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := env("CATALOG_PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CATALOG_PAGE_SIZE: %w", err)
		}
		c.API.PageSize = n
	}

	if v, ok := env("SLUG_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SLUG_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}

	if v, ok := env("LOG_PRETTY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Logging.Pretty = b
	}

	return nil
}

// Validate checks values that have no usable fallback.
func (c Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required (CATALOG_API_BASE_URL)"))
	}
	if c.API.PageSize < 1 {
		errs = append(errs, fmt.Errorf("api.page_size must be >= 1 (got %d)", c.API.PageSize))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0 (got %s)", c.Cache.TTL))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if !strings.HasPrefix(c.Sitemap.ItemsPath, "/") {
		errs = append(errs, fmt.Errorf("sitemap.items_path must start with / (got %q)", c.Sitemap.ItemsPath))
	}

	return errors.Join(errs...)
}

// LoggerConfig converts to the logger setup configuration.
func (c Config) LoggerConfig() logging.Config {
	out := logging.DefaultConfig()
	out.Pretty = c.Logging.Pretty
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		out.Level = level
	}
	return out
}

// CatalogConfig builds the client configuration. With a Redis URL the slug
// cache is a RedisStore and closeFn releases its connection; otherwise
// closeFn is a no-op.
func (c Config) CatalogConfig() (cfg catalog.Config, closeFn func() error, err error) {
	cfg = catalog.DefaultConfig(c.API.BaseURL)
	cfg.ToDate = c.API.ToDate
	cfg.Locale = c.API.Locale
	if c.API.Headers != nil {
		cfg.Headers = c.API.Headers
	}
	if c.API.Timeout > 0 {
		cfg.Timeout = c.API.Timeout
	}
	cfg.Retry.MaxRetries = c.API.MaxRetries
	cfg.Retry.InitialBackoff = c.API.InitialBackoff
	if c.API.ScanPageSize > 0 {
		cfg.ScanPageSize = c.API.ScanPageSize
	}
	if c.API.MaxScanPages > 0 {
		cfg.MaxScanPages = c.API.MaxScanPages
	}
	cfg.CacheNamespace = c.Cache.Namespace

	closeFn = func() error { return nil }
	if c.Cache.RedisURL == "" {
		return cfg, closeFn, nil
	}

	opts, err := redis.ParseURL(c.Cache.RedisURL)
	if err != nil {
		return catalog.Config{}, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	cfg.SlugCache = cache.NewRedisStore(client, c.Cache.TTL)

	return cfg, client.Close, nil
}
