package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "BAAI/bge-reranker-base", cfg.Reranker.Model)
	assert.Equal(t, "auto", cfg.Reranker.Device)
	assert.Equal(t, 256, cfg.Reranker.MaxLength)
	assert.Equal(t, 64, cfg.Reranker.BatchSize)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RERANKER_MODEL", "BAAI/bge-reranker-large")
	t.Setenv("RERANKER_DEVICE", "cuda")
	t.Setenv("RERANKER_MAX_LENGTH", "512")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "BAAI/bge-reranker-large", cfg.Reranker.Model)
	assert.Equal(t, "cuda", cfg.Reranker.Device)
	assert.Equal(t, 512, cfg.Reranker.MaxLength)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("RERANKER_MAX_LENGTH", "not-a-number")
	t.Setenv("SERVER_PORT", "-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Reranker.MaxLength)
	assert.Equal(t, 8080, cfg.Server.Port)
}
