package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4*time.Hour, cfg.Planning.SessionTTL)
	assert.Equal(t, 30, cfg.Planning.MaxDays)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Model.Plan.UseSearch)
	assert.False(t, cfg.Model.Adjust.UseSearch)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"PORT":            "8080",
		"ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"SESSION_TTL":     "2h",
		"MAX_DAYS":        "14",
		"MODEL_PROVIDER":  "fixture",
	}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Planning.SessionTTL)
	assert.Equal(t, 14, cfg.Planning.MaxDays)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(env(map[string]string{"MAX_DAYS": "lots"})))
	assert.Error(t, cfg.applyEnv(env(map[string]string{"SESSION_TTL": "forever"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"fixture provider", func(c *Config) { c.Model.Provider = "fixture" }, true},
		{"genai with project", func(c *Config) { c.Model.GoogleProject = "trip-planner" }, true},
		{"genai without credentials", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Model.Provider = "openai" }, false},
		{"zero ttl", func(c *Config) {
			c.Model.Provider = "fixture"
			c.Planning.SessionTTL = 0
		}, false},
		{"top p above one", func(c *Config) {
			c.Model.Provider = "fixture"
			c.Model.Adjust.TopP = 1.5
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayfarer.yaml")
	yamlDoc := `
server:
  port: "9000"
planning:
  sessionTTL: 3h
  maxDays: 10
model:
  provider: fixture
  adjust:
    model: gemini-2.5-flash
    temperature: 0.2
    topP: 0.7
    maxOutputTokens: 2048
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("PORT", "")
	t.Setenv("MODEL_PROVIDER", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Hour, cfg.Planning.SessionTTL)
	assert.Equal(t, 10, cfg.Planning.MaxDays)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.Adjust.Model)
	assert.EqualValues(t, 2048, cfg.Model.Adjust.MaxOutputTokens)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Model.Plan.UseSearch)
}

func TestLoadOverridesRunBeforeValidation(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODEL_PROVIDER", "genai")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)

	cfg, err := Load("", func(c *Config) { c.Model.Provider = "fixture" })
	require.NoError(t, err)
	assert.Equal(t, "fixture", cfg.Model.Provider)
}
