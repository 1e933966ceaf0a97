package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultMaxHistory, cfg.MaxHistory)
	assert.Equal(t, DefaultSessionTimeout, cfg.SessionTimeout)
	assert.Equal(t, DefaultContextCharBudget, cfg.ContextCharBudget)
	assert.InDelta(t, DefaultTemperature, cfg.Temperature, 1e-9)
}

func TestLoadProjectJSONC(t *testing.T) {
	dir := t.TempDir()
	content := `{
		// model selection
		"model": "anthropic/claude-sonnet-4-20250514",
		"maxHistory": 20,
		"provider": {
			"anthropic": {"apiKey": "sk-test", "maxTokens": 8192}
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeassist.jsonc"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 20, cfg.MaxHistory)
	assert.Equal(t, "sk-test", cfg.Provider["anthropic"].APIKey)
	assert.Equal(t, 8192, cfg.Provider["anthropic"].MaxTokens)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultSessionTimeout, cfg.SessionTimeout)
}

func TestLoadProjectYAML(t *testing.T) {
	dir := t.TempDir()
	content := "model: openai/gpt-4o\nsessionTimeout: 120\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeassist.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", cfg.Model)
	assert.Equal(t, 120, cfg.SessionTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvInterpolation(t *testing.T) {
	t.Setenv("TEST_ASSIST_KEY", "sk-from-env")

	dir := t.TempDir()
	content := `{"provider": {"openai": {"apiKey": "{env:TEST_ASSIST_KEY}"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeassist.json"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Provider["openai"].APIKey)
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("CODEASSIST_MODEL", "openai/gpt-4o-mini")
	t.Setenv("CODEASSIST_SESSION_TIMEOUT", "60")

	dir := t.TempDir()
	content := `{"model": "anthropic/claude-sonnet-4-20250514", "sessionTimeout": 7200}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeassist.json"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Model)
	assert.Equal(t, 60, cfg.SessionTimeout)
}

func TestLoadMissingDirUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxHistory, cfg.MaxHistory)
}
