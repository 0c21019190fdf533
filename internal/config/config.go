// Package config loads service settings from configs/config.yml and HEATSEQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "HEATSEQ"

type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// CatalogConfig points at an HCL unit catalog; empty means the built-in plant table.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type ReconcileConfig struct {
	RolloverThreshold  time.Duration `mapstructure:"rollover_threshold"`
	ProductionDayStart time.Duration `mapstructure:"production_day_start"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type ArchiveConfig struct {
	Driver          string `mapstructure:"driver"`
	Root            string `mapstructure:"root"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// RetentionConfig drives the batch pruner. Zero MaxAge keeps everything.
type RetentionConfig struct {
	MaxAge time.Duration `mapstructure:"max_age"`
	Tick   time.Duration `mapstructure:"tick"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("catalog.path", "")
	v.SetDefault("reconcile.rollover_threshold", "12h")
	v.SetDefault("reconcile.production_day_start", "8h")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("archive.driver", "fs")
	v.SetDefault("archive.root", "./archive")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.path_style", false)
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.secret_access_key", "")
	v.SetDefault("retention.max_age", "0s")
	v.SetDefault("retention.tick", "1h")
}

// Load reads config.yml from the given directories (default "configs"). A missing
// file is not an error: defaults and environment still apply.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Reconcile.RolloverThreshold <= 0 {
		return fmt.Errorf("reconcile.rollover_threshold must be positive, got %s", c.Reconcile.RolloverThreshold)
	}
	if c.Reconcile.ProductionDayStart < 0 || c.Reconcile.ProductionDayStart >= 24*time.Hour {
		return fmt.Errorf("reconcile.production_day_start must be within a day, got %s", c.Reconcile.ProductionDayStart)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Retention.MaxAge > 0 && c.Retention.Tick <= 0 {
		return fmt.Errorf("retention.tick must be positive when retention.max_age is set")
	}
	return nil
}
