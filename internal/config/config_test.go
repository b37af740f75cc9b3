package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://auth.halcyonlabs.io/oauth/token", cfg.Auth.TokenURL)
	assert.Equal(t, "cloud-api", cfg.Auth.Audience)

	expected := CacheConfig{
		MaxSize:                10,
		CleanupThreshold:       15,
		CleanupIntervalSeconds: 300,
	}
	assert.Equal(t, expected, cfg.Cache)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Observe.Enabled)
}

func TestConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_TOKEN_URL", "http://localhost:9999/oauth/token")
	t.Setenv("AUTH_CACHE_MAX_SIZE", "2")
	t.Setenv("AUTH_CACHE_CLEANUP_THRESHOLD", "5")
	t.Setenv("AUTH_CACHE_CLEANUP_INTERVAL_SECS", "60")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/oauth/token", cfg.Auth.TokenURL)

	expected := CacheConfig{
		MaxSize:                2,
		CleanupThreshold:       5,
		CleanupIntervalSeconds: 60,
	}
	assert.Equal(t, expected, cfg.Cache)
}

func TestConfig_RelativeTokenURL(t *testing.T) {
	t.Setenv("AUTH_TOKEN_URL", "oauth/token")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "invalid auth configuration")
}

func TestConfig_InvalidCacheSize(t *testing.T) {
	t.Setenv("AUTH_CACHE_MAX_SIZE", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "invalid cache configuration")
}

func TestConfig_InvalidCleanupInterval(t *testing.T) {
	t.Setenv("AUTH_CACHE_CLEANUP_INTERVAL_SECS", "-1")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "invalid cache configuration")
}
