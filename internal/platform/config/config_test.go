package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("BLOODBRIDGE_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Len(t, cfg.CORSOrigins, 4)
	assert.NotEmpty(t, cfg.JWTSigningKey)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BLOODBRIDGE_ADDR", ":9090")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}
