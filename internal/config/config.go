package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all injected service configuration. The vendor tokens and the
// store identifier have no defaults and must come from the environment.
type Config struct {
	App      AppConfig
	Shopify  ShopifyConfig
	PrimeCOD PrimeCODConfig
	Sync     SyncConfig
}

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ShopifyConfig holds store-platform API settings.
type ShopifyConfig struct {
	StoreDomain string // e.g. "my-store.myshopify.com"
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

// PrimeCODConfig holds COD-provider API settings.
type PrimeCODConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// SyncConfig bounds a reconciliation run.
type SyncConfig struct {
	MaxPages       int           // leads pagination ceiling
	MatchWindow    time.Duration // created-at tie-break window
	MaxConcurrency int           // parallel reconciliations per run
	RunTimeout     time.Duration // per-invocation ceiling
}

// Load reads configuration from an optional config.toml plus environment
// variables with the COD_ prefix (e.g. COD_SHOPIFY_ACCESS_TOKEN). Env wins.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, env vars and defaults cover everything.
	}

	v.SetEnvPrefix("COD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Port:         v.GetString("app.port"),
			ReadTimeout:  v.GetDuration("app.read_timeout"),
			WriteTimeout: v.GetDuration("app.write_timeout"),
			IdleTimeout:  v.GetDuration("app.idle_timeout"),
		},
		Shopify: ShopifyConfig{
			StoreDomain: v.GetString("shopify.store_domain"),
			AccessToken: v.GetString("shopify.access_token"),
			APIVersion:  v.GetString("shopify.api_version"),
			Timeout:     v.GetDuration("shopify.timeout"),
		},
		PrimeCOD: PrimeCODConfig{
			BaseURL:  v.GetString("primecod.base_url"),
			APIToken: v.GetString("primecod.api_token"),
			Timeout:  v.GetDuration("primecod.timeout"),
		},
		Sync: SyncConfig{
			MaxPages:       v.GetInt("sync.max_pages"),
			MatchWindow:    v.GetDuration("sync.match_window"),
			MaxConcurrency: v.GetInt("sync.max_concurrency"),
			RunTimeout:     v.GetDuration("sync.run_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.read_timeout", 10*time.Second)
	v.SetDefault("app.write_timeout", 60*time.Second)
	v.SetDefault("app.idle_timeout", 120*time.Second)

	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.timeout", 30*time.Second)

	v.SetDefault("primecod.base_url", "https://api.primecod.app")
	v.SetDefault("primecod.timeout", 30*time.Second)

	v.SetDefault("sync.max_pages", 10)
	v.SetDefault("sync.match_window", 48*time.Hour)
	v.SetDefault("sync.max_concurrency", 4)
	v.SetDefault("sync.run_timeout", 180*time.Second)
}

// Validate checks the fields without which no outbound call can succeed.
func (c *Config) Validate() error {
	if c.Shopify.StoreDomain == "" {
		return fmt.Errorf("shopify.store_domain is required (COD_SHOPIFY_STORE_DOMAIN)")
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("shopify.access_token is required (COD_SHOPIFY_ACCESS_TOKEN)")
	}
	if c.PrimeCOD.APIToken == "" {
		return fmt.Errorf("primecod.api_token is required (COD_PRIMECOD_API_TOKEN)")
	}
	if c.Sync.MaxPages <= 0 {
		return fmt.Errorf("sync.max_pages must be positive")
	}
	if c.Sync.MaxConcurrency <= 0 {
		return fmt.Errorf("sync.max_concurrency must be positive")
	}
	return nil
}
