package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		orig, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, orig)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "SERVER_HOST", "SERVER_PORT", "TRANSPORT", "DEFAULT_USER",
		"DEFAULT_PASSWORD", "ALLOW_DELETE", "RUDP_MTU", "RUDP_MAX_WINDOW",
		"RUDP_RETRY_SLEEP_MS", "RUDP_MAX_RETRIES", "LOG_LEVEL", "COMMAND_TIMEOUT")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "20383", cfg.Server.Port)
	assert.True(t, cfg.Server.AllowDelete)
	assert.Equal(t, 5*time.Second, cfg.Server.CommandTimeout)
	assert.Equal(t, "tcp", cfg.Transport.Protocol)
	assert.Equal(t, "user", cfg.Auth.DefaultUser)
	assert.Equal(t, "1234", cfg.Auth.DefaultPassword)
	assert.Equal(t, 1024, cfg.RUDP.MTU)
	assert.Equal(t, 10, cfg.RUDP.MaxWindow)
	assert.Equal(t, 50, cfg.RUDP.RetrySleepMS)
	assert.Equal(t, 600, cfg.RUDP.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithOverrides(t *testing.T) {
	clearEnv(t, "SERVER_HOST", "SERVER_PORT", "TRANSPORT", "LOG_LEVEL")

	cfg, err := LoadWithOverrides(LoadOptions{
		Host:      "127.0.0.1",
		Port:      "2121",
		Transport: "rudp",
		LogLevel:  "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "2121", cfg.Server.Port)
	assert.Equal(t, "rudp", cfg.Transport.Protocol)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	clearEnv(t, "SERVER_PORT", "RUDP_MAX_WINDOW", "ALLOW_DELETE")
	os.Setenv("SERVER_PORT", "9999")
	os.Setenv("RUDP_MAX_WINDOW", "3")
	os.Setenv("ALLOW_DELETE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 3, cfg.RUDP.MaxWindow)
	assert.False(t, cfg.Server.AllowDelete)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "not-a-port"},
		Transport: TransportConfig{Protocol: "tcp"},
		RUDP:      RUDPConfig{MTU: 1024, MaxWindow: 10, RetrySleepMS: 50, MaxRetries: 600},
		Logging:   LoggingConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "20383"},
		Transport: TransportConfig{Protocol: "quic"},
		RUDP:      RUDPConfig{MTU: 1024, MaxWindow: 10, RetrySleepMS: 50, MaxRetries: 600},
		Logging:   LoggingConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsSmallMTU(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "20383"},
		Transport: TransportConfig{Protocol: "rudp"},
		RUDP:      RUDPConfig{MTU: 12, MaxWindow: 10, RetrySleepMS: 50, MaxRetries: 600},
		Logging:   LoggingConfig{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}

func TestGetGlobalConfig(t *testing.T) {
	clearEnv(t, "SERVER_PORT")
	os.Setenv("SERVER_PORT", "4242")

	cfg, err := Load()
	require.NoError(t, err)

	got := GetGlobalConfig()
	require.NotNil(t, got)
	assert.Equal(t, cfg.Server.Port, got.Server.Port)
}
