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
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(newViper(map[string]any{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 6, cfg.Limits.PasswordMinLength)
	assert.Equal(t, 4000, cfg.Limits.MaxMessageLength)
	assert.False(t, cfg.S3.Configured())
}

func TestParseConfig_MissingSecret(t *testing.T) {
	_, err := ParseConfig(newViper(nil))
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestParseConfig_Overrides(t *testing.T) {
	cfg, err := ParseConfig(newViper(map[string]any{
		"JWT_SECRET":          "s3cret",
		"JWT_TTL":             "24h",
		"STORE_DRIVER":        "Memory",
		"PUBLIC_API_BASE_URL": "https://api.example.com/api/",
		"PASSWORD_MIN_LENGTH": 2,
		"S3_ENDPOINT":         "localhost:9000",
		"S3_BUCKET":           "avatars",
		"S3_ACCESS_KEY":       "k",
		"S3_SECRET_KEY":       "s",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "https://api.example.com/api", cfg.Server.PublicAPIBaseURL)
	assert.Equal(t, 6, cfg.Limits.PasswordMinLength, "minimum is clamped")
	assert.True(t, cfg.S3.Configured())
}

func TestParseConfig_UnknownDriver(t *testing.T) {
	_, err := ParseConfig(newViper(map[string]any{"JWT_SECRET": "x", "STORE_DRIVER": "cassandra"}))
	assert.Error(t, err)
}
