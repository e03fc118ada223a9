package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PASETO_KEY", validKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 72*time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxAvatarBytes)
	assert.Equal(t, "http://localhost:3000", cfg.Email.FrontendURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PASETO_KEY", validKey)
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SESSION_TOKEN_DURATION", "3600")
	t.Setenv("RESET_TOKEN_DURATION", "600")
	t.Setenv("MAX_AVATAR_BYTES", "1048576")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, 10*time.Minute, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxAvatarBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
}

func TestLoad_RejectsBadKeyLength(t *testing.T) {
	t.Setenv("PASETO_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "app",
		Password: "pw",
		DBName:   "userhub",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=app password=pw dbname=userhub sslmode=require",
		cfg.ConnectionString(),
	)
}
