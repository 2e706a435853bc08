// Package config loads relay settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultAddr           = "127.0.0.1:9999"
	DefaultReadBufferSize = 64
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

type Config struct {
	// Relay
	Addr           string `env:"RELAY_ADDR" default:"127.0.0.1:9999"`
	HTTPAddr       string `env:"RELAY_HTTP_ADDR"`
	ReadBufferSize int    `env:"RELAY_READ_BUFFER" default:"64"`

	// Discovery
	MDNS     bool   `env:"RELAY_MDNS" default:"false"`
	MDNSName string `env:"RELAY_MDNS_NAME"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

// Load reads ./.env if present, then the environment. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		slog.Debug("env_file_not_found", "path", path)
	}

	config := &Config{}

	if err := loadEnvString(&config.Addr, "RELAY_ADDR", DefaultAddr); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.HTTPAddr, "RELAY_HTTP_ADDR", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.ReadBufferSize, "RELAY_READ_BUFFER", DefaultReadBufferSize); err != nil {
		return nil, err
	}

	if err := loadEnvBool(&config.MDNS, "RELAY_MDNS", false); err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	if err := loadEnvString(&config.MDNSName, "RELAY_MDNS_NAME", hostname); err != nil {
		return nil, err
	}

	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", DefaultLogLevel); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", DefaultLogFormat); err != nil {
		return nil, err
	}
	return config, nil
}

func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errs []string

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("RELAY_ADDR must be host:port: %v", err))
	}
	if c.HTTPAddr != "" {
		if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
			errs = append(errs, fmt.Sprintf("RELAY_HTTP_ADDR must be host:port: %v", err))
		}
	}
	if c.ReadBufferSize < 1 {
		errs = append(errs, "RELAY_READ_BUFFER must be positive")
	}
	if c.MDNS && c.MDNSName == "" {
		errs = append(errs, "RELAY_MDNS_NAME is required when RELAY_MDNS is set")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"text", "json"}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
