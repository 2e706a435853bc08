package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relayKeys = []string{
	"RELAY_ADDR", "RELAY_HTTP_ADDR", "RELAY_READ_BUFFER",
	"RELAY_MDNS", "RELAY_MDNS_NAME", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every relay key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range relayKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	hostname, _ := os.Hostname()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 64, cfg.ReadBufferSize)
	assert.False(t, cfg.MDNS)
	assert.Equal(t, hostname, cfg.MDNSName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("RELAY_ADDR", "0.0.0.0:7000")
	t.Setenv("RELAY_HTTP_ADDR", "0.0.0.0:7001")
	t.Setenv("RELAY_READ_BUFFER", "1024")
	t.Setenv("RELAY_MDNS", "true")
	t.Setenv("RELAY_MDNS_NAME", "relay-a")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Addr:           "0.0.0.0:7000",
		HTTPAddr:       "0.0.0.0:7001",
		ReadBufferSize: 1024,
		MDNS:           true,
		MDNSName:       "relay-a",
		LogLevel:       "debug",
		LogFormat:      "json",
	}, cfg)
}

func TestLoadFile_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RELAY_ADDR=127.0.0.1:4000\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr)
	// The environment wins over the file.
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"buffer not a number", "RELAY_READ_BUFFER", "big"},
		{"mdns not a bool", "RELAY_MDNS", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Addr:           DefaultAddr,
		ReadBufferSize: 64,
		LogLevel:       "info",
		LogFormat:      "text",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad addr", func(c *Config) { c.Addr = "9999" }, "RELAY_ADDR"},
		{"bad http addr", func(c *Config) { c.HTTPAddr = "nope" }, "RELAY_HTTP_ADDR"},
		{"zero buffer", func(c *Config) { c.ReadBufferSize = 0 }, "RELAY_READ_BUFFER"},
		{"mdns without name", func(c *Config) { c.MDNS = true }, "RELAY_MDNS_NAME"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
