package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, int64(50*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 12000, cfg.Gemini.MaxInputChars)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.MinIO.Enabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_AI_STUDIO_API_KEY", "legacy-key")
	t.Setenv("PORT", "8081")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("SHARE_LINK_TTL_MINUTES", "15")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "legacy-key", cfg.Gemini.APIKey)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxUploadBytes)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Contains(t, cfg.Store.PostgresDSN, "host=db.internal")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.MinIO.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.MinIO.ShareLinkTTL)
}

func TestValidate(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_AI_STUDIO_API_KEY", "")
		_, err := FromViper(newViper())
		assert.ErrorContains(t, err, "GEMINI_API_KEY")
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "k")
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := FromViper(newViper())
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})

	t.Run("non-positive upload limit", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "k")
		t.Setenv("MAX_UPLOAD_MB", "0")
		_, err := FromViper(newViper())
		assert.Error(t, err)
	})

	t.Run("zero burst", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "k")
		t.Setenv("RATE_LIMIT_RPS", "10")
		t.Setenv("RATE_LIMIT_BURST", "0")
		_, err := FromViper(newViper())
		assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
	})

	t.Run("zero burst with limiting disabled", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "k")
		t.Setenv("RATE_LIMIT_ENABLED", "false")
		t.Setenv("RATE_LIMIT_BURST", "0")
		_, err := FromViper(newViper())
		assert.NoError(t, err)
	})
}
