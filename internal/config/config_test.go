package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"DB_DSN":            "postgres://localhost/contracts",
		"JWT_ACCESS_SECRET": "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.NotEmpty(t, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 1000, cfg.Contracts.ExportLimit)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"APP_ENV":                "production",
		"HTTP_PORT":              8081,
		"DB_DSN":                 "postgres://localhost/contracts",
		"JWT_ACCESS_SECRET":      "secret",
		"REDIS_ADDR":             "localhost:6379",
		"REDIS_DB":               2,
		"CACHE_TTL":              "90s",
		"CORS_ALLOWED_ORIGINS":   " https://a.example , ,https://b.example",
		"CONTRACTS_EXPORT_LIMIT": 25,
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 25, cfg.Contracts.ExportLimit)
}

func TestFromViperValidation(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"JWT_ACCESS_SECRET": "secret"}))
	assert.ErrorContains(t, err, "DB_DSN")

	_, err = fromViper(newViper(map[string]any{"DB_DSN": "dsn"}))
	assert.ErrorContains(t, err, "JWT_ACCESS_SECRET")

	_, err = fromViper(newViper(map[string]any{
		"DB_DSN":            "dsn",
		"JWT_ACCESS_SECRET": "secret",
		"CACHE_TTL":         "soon",
	}))
	assert.ErrorContains(t, err, "CACHE_TTL")
}
