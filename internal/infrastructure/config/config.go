// Package config loads the application configuration from configs/config.yaml
// and SIGNET_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	sharedConfig "signet/internal/shared/config"
)

type Config struct {
	Database    sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig      `mapstructure:"logger"`
	Apple       sharedConfig.AppleConfig       `mapstructure:"apple"`
	Twitter     sharedConfig.TwitterConfig     `mapstructure:"twitter"`
	TokenCipher sharedConfig.TokenCipherConfig `mapstructure:"token_cipher"`
	Worker      sharedConfig.WorkerConfig      `mapstructure:"worker"`
}

var (
	appConfig *Config
	appMu     sync.RWMutex
	validate  = validator.New()
)

// Load reads the config file, applies env overrides and validates the result.
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("SIGNET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appMu.Lock()
	appConfig = &cfg
	appMu.Unlock()

	return &cfg, nil
}

// Get returns the loaded configuration.
func Get() *Config {
	appMu.RLock()
	defer appMu.RUnlock()
	return appConfig
}

func setDefaults() {
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "text")
	viper.SetDefault("logger.output_path", "stdout")

	viper.SetDefault("worker.queue_size", 256)
}
