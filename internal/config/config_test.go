package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptportal/portal-go/internal/promptcache"
)

func TestConfig_LoadAndSave(t *testing.T) {
	manager := NewManager(t.TempDir())

	cfg := &Config{
		Host:   "127.0.0.1",
		Port:   8080,
		APIKey: "portal-key",
		Keys: VendorKeys{
			OpenAI:    "sk-test",
			Anthropic: "ant-test",
		},
		Cache: promptcache.Config{
			Enabled:         true,
			DefaultStrategy: promptcache.StrategyAggressive,
			MaxBreakpoints:  2,
		},
		ClaudeWebSearch: true,
	}

	require.NoError(t, manager.Save(cfg))
	assert.True(t, manager.Exists())

	loaded, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, cfg.Host, loaded.Host)
	assert.Equal(t, cfg.Port, loaded.Port)
	assert.Equal(t, cfg.APIKey, loaded.APIKey)
	assert.Equal(t, "sk-test", loaded.Keys.OpenAI)
	assert.Equal(t, "ant-test", loaded.Keys.Anthropic)
	assert.Equal(t, promptcache.StrategyAggressive, loaded.Cache.DefaultStrategy)
	assert.True(t, loaded.ClaudeWebSearch)
}

func TestConfig_LoadAppliesDefaults(t *testing.T) {
	manager := NewManager(t.TempDir())

	require.NoError(t, manager.Save(&Config{}))

	loaded, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, loaded.Host)
	assert.Equal(t, DefaultPort, loaded.Port)
	assert.Equal(t, promptcache.StrategyConservative, loaded.Cache.DefaultStrategy)
}

func TestConfig_EnvFallback(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-from-env")
	t.Setenv("OPENAI_API_KEY", "")

	manager := NewManager(t.TempDir())
	require.NoError(t, manager.Save(&Config{
		Keys: VendorKeys{OpenAI: "sk-explicit"},
	}))

	loaded, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, "gsk-from-env", loaded.Keys.Groq, "empty key falls back to env")
	assert.Equal(t, "sk-explicit", loaded.Keys.OpenAI, "explicit key wins over env")
}

func TestConfig_GetWithoutFile(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "ds-env")

	manager := NewManager(t.TempDir())

	cfg := manager.Get()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "ds-env", cfg.Keys.DeepSeek)
}
