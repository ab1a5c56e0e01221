package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName names the per-user config, state and cache directories
const AppName = "furryfriends"

// DefaultMaxUploadBytes is the largest file the upload form accepts (10 MiB)
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// Config holds the complete application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Upload UploadConfig `mapstructure:"upload"`
	UI     UIConfig     `mapstructure:"ui"`
}

// ServerConfig describes the FurryFriends server the client talks to
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout in seconds
	Timeout int `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// UploadConfig holds upload-specific configuration
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// UIConfig holds user interface configuration
type UIConfig struct {
	PopupDuration      time.Duration `mapstructure:"popup_duration"`
	RedirectDelay      time.Duration `mapstructure:"redirect_delay"`
	ImagePreviewMethod string        `mapstructure:"image_preview_method"`
}

// RequestTimeout returns the server timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.Timeout) * time.Second
}

// Load loads configuration from multiple sources with priority:
// 1. Command line flags (highest)
// 2. Environment variables
// 3. Configuration file
// 4. Defaults (lowest)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FURRY")
	v.AutomaticEnv()

	v.BindEnv("server.base_url", "FURRY_SERVER_URL")
	v.BindEnv("server.timeout", "FURRY_SERVER_TIMEOUT")
	v.BindEnv("log.level", "FURRY_LOG_LEVEL")
	v.BindEnv("log.format", "FURRY_LOG_FORMAT")
	v.BindEnv("log.file", "FURRY_LOG_FILE")
	v.BindEnv("upload.max_bytes", "FURRY_UPLOAD_MAX_BYTES")
	v.BindEnv("ui.popup_duration", "FURRY_UI_POPUP_DURATION")
	v.BindEnv("ui.redirect_delay", "FURRY_UI_REDIRECT_DELAY")
	v.BindEnv("ui.image_preview_method", "FURRY_UI_IMAGE_PREVIEW_METHOD")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath("/etc/furryfriends/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error - we can use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.timeout", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", filepath.Join(StateDir(), "app.log"))

	v.SetDefault("upload.max_bytes", DefaultMaxUploadBytes)

	v.SetDefault("ui.popup_duration", "1s")
	v.SetDefault("ui.redirect_delay", "1s")
	v.SetDefault("ui.image_preview_method", "auto")
}

// ConfigDir returns the per-user configuration directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StateDir returns the per-user state directory (logs, user data)
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// CacheDir returns the per-user cache directory (downloaded images)
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}
