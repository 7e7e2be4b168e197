package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/csr")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "stub", cfg.AIMode)
	assert.Equal(t, 1000, cfg.ChunkMaxSize)
	assert.Equal(t, 300, cfg.ChunkMinSize)
	assert.Equal(t, 5, cfg.RAGLimitPerCategory)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/csr")
	t.Setenv("CHUNK_MAX_SIZE", "2000")
	t.Setenv("CHUNK_MIN_SIZE", "not-a-number")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "http://a, http://b ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.ChunkMaxSize)
	assert.Equal(t, 300, cfg.ChunkMinSize)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.CORSOrigins)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"DATABASE_URL": ""},
		"unknown storage":      {"DATABASE_URL": "x", "STORAGE_BACKEND": "ftp"},
		"unknown ai mode":      {"DATABASE_URL": "x", "AI_MODE": "gpt"},
		"min above max":        {"DATABASE_URL": "x", "CHUNK_MAX_SIZE": "100", "CHUNK_MIN_SIZE": "200"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
