package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.JWT.ResetTokenExpire)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Server.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("IPS_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvOrDefault("IPS_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("IPS_TEST_MISSING", "fallback"))
}
