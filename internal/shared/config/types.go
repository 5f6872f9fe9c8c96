// Package config holds the typed configuration sections shared across the
// application. Values are populated by the infrastructure config loader.
package config

import "fmt"

type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required"`
	Username        string `mapstructure:"username" validate:"required"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// AppleConfig configures Sign in with Apple. ServiceID authenticates the web
// flow, AppID the native flow; the two map to different token audiences.
type AppleConfig struct {
	TeamID       string `mapstructure:"team_id" validate:"required"`
	AppID        string `mapstructure:"app_id" validate:"required"`
	ServiceID    string `mapstructure:"service_id" validate:"required"`
	SigningKeyID string `mapstructure:"signing_key_id" validate:"required"`
	// SigningKey is the PEM-encoded EC private key downloaded from the
	// developer portal, used to mint client-secret assertions.
	SigningKey  string `mapstructure:"signing_key" validate:"required"`
	RedirectURL string `mapstructure:"redirect_url"`
}

// TwitterConfig configures the OAuth 1.0a consumer plus the application-owned
// token used for unsigned-in API calls such as user search.
type TwitterConfig struct {
	ConsumerKey    string `mapstructure:"consumer_key" validate:"required"`
	ConsumerSecret string `mapstructure:"consumer_secret" validate:"required"`
	// AppToken/AppTokenSecret belong to the application's own account and
	// back API calls that are not made on behalf of a user.
	AppToken       string `mapstructure:"app_token"`
	AppTokenSecret string `mapstructure:"app_token_secret"`
}

// TokenCipherConfig configures opaque bearer-token encryption.
type TokenCipherConfig struct {
	// Key is the AES key; 16, 24 or 32 bytes after decoding.
	Key string `mapstructure:"key" validate:"required"`
}

// WorkerConfig configures the background tweet-posting worker.
type WorkerConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}
