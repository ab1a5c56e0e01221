package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate validates the configuration and returns an error if invalid
func Validate(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}

	if err := validateUploadConfig(&config.Upload); err != nil {
		return fmt.Errorf("upload config validation failed: %w", err)
	}

	if err := validateUIConfig(&config.UI); err != nil {
		return fmt.Errorf("ui config validation failed: %w", err)
	}

	return nil
}

// validateServerConfig validates the server address and timeout
func validateServerConfig(config *ServerConfig) error {
	if strings.TrimSpace(config.BaseURL) == "" {
		return fmt.Errorf("base_url is required")
	}

	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host: %s", config.BaseURL)
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %d", config.Timeout)
	}

	return nil
}

// validateLogConfig validates log configuration
func validateLogConfig(config *LogConfig) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	level := strings.ToLower(config.Level)
	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error, fatal, panic)", config.Level)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	format := strings.ToLower(config.Format)
	if !validFormats[format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", config.Format)
	}

	return nil
}

// validateUploadConfig validates upload configuration
func validateUploadConfig(config *UploadConfig) error {
	if config.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be positive, got: %d", config.MaxBytes)
	}
	return nil
}

// validateUIConfig validates timings and the preview method
func validateUIConfig(config *UIConfig) error {
	if config.PopupDuration <= 0 {
		return fmt.Errorf("popup_duration must be positive, got: %s", config.PopupDuration)
	}

	if config.RedirectDelay < 0 {
		return fmt.Errorf("redirect_delay must not be negative, got: %s", config.RedirectDelay)
	}

	validMethods := map[string]bool{
		"auto":   true,
		"ansi":   true,
		"kitty":  true,
		"iterm2": true,
		"sixel":  true,
		"none":   true,
	}
	if !validMethods[strings.ToLower(config.ImagePreviewMethod)] {
		return fmt.Errorf("invalid image_preview_method: %s (valid: auto, ansi, kitty, iterm2, sixel, none)", config.ImagePreviewMethod)
	}

	return nil
}
