package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDER_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8081" usage:"Order service listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDER_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Storage     StorageConfig
	Cache       CacheConfig
	Catalog     CatalogConfig
	Graceful    GracefulConfig
}

// StorageConfig selects the order store backend. The two backends have
// deliberately different durability: memory silently forgets orders on
// restart or flush, postgres is the durable system of record.
type StorageConfig struct {
	Backend string `default:"memory" usage:"Order store backend: memory or postgres"`
}

// CacheConfig controls the in-memory order cache sitting in front of the
// durable store.
type CacheConfig struct {
	Enabled       bool          `default:"true" usage:"Enable the in-memory order cache"`
	FlushInterval time.Duration `default:"12h"  usage:"Interval between full cache flushes" flag:"cache-flush-interval"`
}

// CatalogConfig points at the external product catalog service.
type CatalogConfig struct {
	URL     string        `default:"http://localhost:8082/petstoreproductservice" usage:"Product catalog service base URL" flag:"catalog-url"`
	Timeout time.Duration `default:"5s"  usage:"Product catalog request timeout" flag:"catalog-timeout"`
	MemoTTL time.Duration `default:"10m" usage:"How long the fetched product list is reused" flag:"catalog-memo-ttl"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDER",
		Files:     []string{"config.yaml", "/etc/order/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Storage.Backend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL is required for the postgres backend: set ORDER_DATABASE_URL or DATABASE_URL")
		}
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// ORDER_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8081" {
		c.Addr = "0.0.0.0:" + port
	}
}
