package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("MURMUR")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return err
	}

	Cfg = cfg
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Cache.Driver != "memory" && cfg.Cache.Driver != "redis" {
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	if cfg.Notification.WindowDays <= 0 || cfg.Notification.ListLimit <= 0 {
		return nil, errors.New("notification window_days and list_limit must be positive")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.tiers.social.stale_time", 30)
	v.SetDefault("cache.tiers.social.retention", 300)
	v.SetDefault("cache.tiers.profile.stale_time", 300)
	v.SetDefault("cache.tiers.profile.retention", 1800)
	v.SetDefault("cache.tiers.realtime.stale_time", 0)
	v.SetDefault("cache.tiers.realtime.retention", 60)
	v.SetDefault("cache.tiers.static.stale_time", 3600)
	v.SetDefault("cache.tiers.static.retention", 86400)

	v.SetDefault("notification.window_days", 7)
	v.SetDefault("notification.list_limit", 50)
	v.SetDefault("notification.retention_days", 30)
	v.SetDefault("notification.purge_spec", "0 30 3 * * *")

	v.SetDefault("backend.timeout", 10)
	v.SetDefault("jwt.issuer", "Murmur")

	v.SetDefault("change_feed.enabled", true)
	v.SetDefault("change_feed.group_id", "murmur-change-feed")
}
