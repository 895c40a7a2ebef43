package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv                string `mapstructure:"app_env"`
	Port                  string `mapstructure:"port"`
	AllowedOrigin         string `mapstructure:"allowed_origin"`
	DatabaseURL           string `mapstructure:"database_url"`
	AutoMigrate           bool   `mapstructure:"auto_migrate"`
	RedisAddr             string `mapstructure:"redis_addr"`
	RedisPassword         string `mapstructure:"redis_password"`
	RedisDB               int    `mapstructure:"redis_db"`
	ReportCacheTTLSeconds int    `mapstructure:"report_cache_ttl_seconds"`
	AuthSecret            string `mapstructure:"auth_secret"`
	AccessTokenTTLMinutes int    `mapstructure:"access_token_ttl_minutes"`
	ManagerPIN            string `mapstructure:"manager_pin"`
	MetricsEnabled        bool   `mapstructure:"metrics_enabled"`
}

var keys = []string{
	"app_env", "port", "allowed_origin", "database_url", "auto_migrate",
	"redis_addr", "redis_password", "redis_db", "report_cache_ttl_seconds",
	"auth_secret", "access_token_ttl_minutes", "manager_pin", "metrics_enabled",
}

// Load reads a .env file when present, then an optional CONFIG_FILE, then
// the environment. Environment variables win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("app_env", "production")
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origin", "http://127.0.0.1:3000")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("redis_db", 0)
	v.SetDefault("report_cache_ttl_seconds", 60)
	v.SetDefault("access_token_ttl_minutes", 480)
	v.SetDefault("metrics_enabled", true)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about during Unmarshal.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.ManagerPIN = strings.TrimSpace(cfg.ManagerPIN)
	if cfg.ReportCacheTTLSeconds < 1 {
		cfg.ReportCacheTTLSeconds = 60
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
