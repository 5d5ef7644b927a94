package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost", "port": 5432, "user": "u", "password": "p", "dbname": "d"},
		"ai": {
			"chat": [{"provider": "gemini", "model": "gemini-2.0-flash", "data": {"api_key": "k"}}],
			"embed": [{"provider": "gemini", "model": "text-embedding-004", "data": {"api_key": "k"}}]
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1536, cfg.AI.Dimension)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, "postgres", cfg.ContextStore.Type)
	require.Equal(t, float32(0.97), cfg.Pipeline.CacheThreshold)
	require.Equal(t, float32(0.5), cfg.Pipeline.ContextThreshold)
	require.Equal(t, 4, cfg.Pipeline.ContextLimit)
	require.Equal(t, 3, cfg.Pipeline.HistoryLimit)
	require.NotNil(t, cfg.Pipeline.StrictContext)
	require.True(t, *cfg.Pipeline.StrictContext)
	require.Equal(t, 4096, cfg.EmbedCache.LRUSize)
	require.Equal(t, 50, cfg.Dataset.BatchSize)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 2, cfg.RateLimitSeconds)
}

func TestLoadRateLimitDisabled(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"rate_limit_seconds": -1,
		"database": {"dsn": "postgres://u:p@localhost/d"},
		"ai": {
			"chat": [{"provider": "openai", "model": "gpt-4o-mini", "data": {"api_key": "k"}}],
			"embed": [{"provider": "openai", "model": "text-embedding-3-small", "data": {"api_key": "k"}}]
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.RateLimitSeconds)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing port",
			content: `{"database": {"host": "h"}, "ai": {"chat": [{"provider": "x", "model": "m"}], "embed": [{"provider": "x", "model": "m"}]}}`,
		},
		{
			name:    "missing database",
			content: `{"port": 1, "ai": {"chat": [{"provider": "x", "model": "m"}], "embed": [{"provider": "x", "model": "m"}]}}`,
		},
		{
			name:    "no chat provider",
			content: `{"port": 1, "database": {"host": "h"}, "ai": {"embed": [{"provider": "x", "model": "m"}]}}`,
		},
		{
			name:    "no embed provider",
			content: `{"port": 1, "database": {"host": "h"}, "ai": {"chat": [{"provider": "x", "model": "m"}]}}`,
		},
		{
			name:    "chat provider without model",
			content: `{"port": 1, "database": {"host": "h"}, "ai": {"chat": [{"provider": "x"}], "embed": [{"provider": "x", "model": "m"}]}}`,
		},
		{
			name:    "cache threshold out of range",
			content: `{"port": 1, "database": {"host": "h"}, "ai": {"chat": [{"provider": "x", "model": "m"}], "embed": [{"provider": "x", "model": "m"}]}, "pipeline": {"cache_threshold": 1.5}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadStrictContextExplicitFalse(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"dsn": "postgres://u:p@localhost/d"},
		"ai": {
			"chat": [{"provider": "openai", "model": "gpt-4o-mini", "data": {"api_key": "k"}}],
			"embed": [{"provider": "openai", "model": "text-embedding-3-small", "data": {"api_key": "k"}}]
		},
		"pipeline": {"strict_context": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Pipeline.StrictContext)
	require.False(t, *cfg.Pipeline.StrictContext)
}
