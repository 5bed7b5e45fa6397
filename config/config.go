package config

import (
	"fmt"

	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa*/

type Config struct {
	Port          string `mapstructure:"PORT"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// One shared webhook secret per provider. An empty value means the
	// provider is not configured and its webhooks are denied.
	StripeWebhookSecret  string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	GitHubWebhookSecret  string `mapstructure:"GITHUB_WEBHOOK_SECRET"`
	ShopifyWebhookSecret string `mapstructure:"SHOPIFY_WEBHOOK_SECRET"`

	// DedupTTLHours bounds the deduplication ledger window.
	DedupTTLHours int `mapstructure:"DEDUP_TTL_HOURS"`

	// Reconciliation sweep settings.
	StripeAPIKey         string `mapstructure:"STRIPE_API_KEY"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	ReconcileWindowHours int    `mapstructure:"RECONCILE_WINDOW_HOURS"`
	SweepIntervalHours   int    `mapstructure:"SWEEP_INTERVAL_HOURS"`
	PolicyFile           string `mapstructure:"RECONCILE_POLICY_FILE"`
	AlertWebhookURL      string `mapstructure:"ALERT_WEBHOOK_URL"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var config Config
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DedupTTLHours <= 0 {
		c.DedupTTLHours = 72
	}
	if c.ReconcileWindowHours <= 0 {
		c.ReconcileWindowHours = 24
	}
	if c.SweepIntervalHours <= 0 {
		c.SweepIntervalHours = 24
	}
}
