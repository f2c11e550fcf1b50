// Package config holds the viper defaults and the typed run configuration.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/lcsc-lookup/internal/batch"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
)

// Configuration keys.
const (
	KeyEndpoint        = "catalog.endpoint"
	KeyQueryParam      = "catalog.query_param"
	KeyProductPageBase = "catalog.product_page_base"
	KeySiteRoot        = "catalog.site_root"
	KeyUserAgent       = "catalog.user_agent"
	KeyTimeout         = "catalog.timeout"
	KeyWorkers         = "batch.workers"
	KeyStagger         = "batch.stagger"
	KeyProgress        = "progress.enabled"
	KeyMemo            = "memo.enabled"
	KeyOverwrite       = "output.overwrite"
	KeyLogLevel        = "log.level"
)

// EnvPrefix is prepended to environment variable overrides, e.g.
// LCSC_LOOKUP_BATCH_WORKERS.
const EnvPrefix = "LCSC_LOOKUP"

// DefaultLogLevel is used when log.level is unset.
const DefaultLogLevel = "info"

// Config is the resolved configuration for one run.
type Config struct {
	Catalog  CatalogConfig
	Batch    BatchConfig
	Progress bool
	Memo     bool
	// Overwrite replaces an existing report file.
	Overwrite bool
	LogLevel  string
}

// CatalogConfig configures the remote catalog client.
type CatalogConfig struct {
	Endpoint        string
	QueryParam      string
	ProductPageBase string
	SiteRoot        string
	UserAgent       string
	Timeout         time.Duration
}

// BatchConfig configures the lookup coordinator.
type BatchConfig struct {
	Workers int
	Stagger time.Duration
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault(KeyEndpoint, catalog.DefaultEndpoint)
	viper.SetDefault(KeyQueryParam, catalog.DefaultQueryParam)
	viper.SetDefault(KeyProductPageBase, catalog.DefaultProductPageBase)
	viper.SetDefault(KeySiteRoot, catalog.DefaultSiteRoot)
	viper.SetDefault(KeyUserAgent, catalog.DefaultUserAgent)
	viper.SetDefault(KeyTimeout, catalog.DefaultTimeout)
	viper.SetDefault(KeyWorkers, batch.DefaultWorkers)
	viper.SetDefault(KeyStagger, batch.DefaultStagger)
	viper.SetDefault(KeyProgress, true)
	viper.SetDefault(KeyMemo, true)
	viper.SetDefault(KeyOverwrite, true)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// Load reads the current viper state into a Config. Invalid numeric values
// fall back to their defaults.
func Load() Config {
	cfg := Config{
		Catalog: CatalogConfig{
			Endpoint:        viper.GetString(KeyEndpoint),
			QueryParam:      viper.GetString(KeyQueryParam),
			ProductPageBase: viper.GetString(KeyProductPageBase),
			SiteRoot:        viper.GetString(KeySiteRoot),
			UserAgent:       viper.GetString(KeyUserAgent),
			Timeout:         viper.GetDuration(KeyTimeout),
		},
		Batch: BatchConfig{
			Workers: viper.GetInt(KeyWorkers),
			Stagger: viper.GetDuration(KeyStagger),
		},
		Progress:  viper.GetBool(KeyProgress),
		Memo:      viper.GetBool(KeyMemo),
		Overwrite: viper.GetBool(KeyOverwrite),
		LogLevel:  viper.GetString(KeyLogLevel),
	}

	if cfg.Catalog.Timeout <= 0 {
		cfg.Catalog.Timeout = catalog.DefaultTimeout
	}
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = batch.DefaultWorkers
	}
	if cfg.Batch.Stagger < 0 {
		cfg.Batch.Stagger = batch.DefaultStagger
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return cfg
}
