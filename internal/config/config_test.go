package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MangaSketch/internal/guide"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 800, cfg.Canvas.Width)
	assert.Equal(t, 600, cfg.Canvas.Height)
	assert.Equal(t, 5.0, cfg.Brush.Width)
	assert.ErrorIs(t, cfg.RequireCredential(), ErrMissingCredential)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("SKETCH_KEY", "from-env")
	t.Setenv("EXPORT_ROOT", "")
	t.Setenv("MANGASKETCH_ADDR", "")
	t.Setenv("MANGASKETCH_EXPORT_DIR", "")
	t.Setenv("MANGASKETCH_LOG_LEVEL", "")
	t.Setenv("MANGASKETCH_GUIDE_SERVER", "")

	path := filepath.Join(t.TempDir(), "mangasketch.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[canvas]
width = 1024
height = 768

[brush]
color = "#336699"

[export]
dir = "${EXPORT_ROOT:-/tmp/sketches}"

[guide]
api_key = "${SKETCH_KEY}"
vision_model = "gemini-vision-test"

[server]
addr = "127.0.0.1:9999"
advertise = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Canvas.Width)
	assert.Equal(t, "#336699", cfg.Brush.Color)
	assert.Equal(t, 5.0, cfg.Brush.Width, "unset keys keep defaults")
	assert.Equal(t, "/tmp/sketches", cfg.Export.Dir)
	assert.Equal(t, "from-env", cfg.Guide.APIKey)
	assert.Equal(t, "gemini-vision-test", cfg.Guide.VisionModel)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.True(t, cfg.Server.Advertise)
	assert.NoError(t, cfg.RequireCredential())
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("MANGASKETCH_ADDR", "127.0.0.1:7777")
	t.Setenv("MANGASKETCH_EXPORT_DIR", "")
	t.Setenv("MANGASKETCH_LOG_LEVEL", "")
	t.Setenv("MANGASKETCH_GUIDE_SERVER", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Canvas, cfg.Canvas)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, "gemini", cfg.Guide.APIKey)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.Addr)
	assert.NoError(t, cfg.RequireCredential())
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[canvas\nwidth = "), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GOOGLE_API_KEY":         "google",
		"ANTHROPIC_API_KEY":      "claude",
		"MANGASKETCH_ADDR":       ":7000",
		"MANGASKETCH_LOG_LEVEL":  "debug",
		"MANGASKETCH_EXPORT_DIR": "/exports",
	}
	getenv := func(k string) string { return env[k] }

	cfg := Default()
	ApplyEnv(&cfg, getenv)
	assert.Equal(t, "google", cfg.Guide.APIKey)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/exports", cfg.Export.Dir)

	cfg = Default()
	cfg.Guide.Provider = guide.ProviderAnthropic
	ApplyEnv(&cfg, getenv)
	assert.Equal(t, "claude", cfg.Guide.APIKey)

	cfg = Default()
	cfg.Guide.APIKey = "explicit"
	ApplyEnv(&cfg, getenv)
	assert.Equal(t, "explicit", cfg.Guide.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Canvas.Width = 0 }},
		{"bad background", func(c *Config) { c.Canvas.Background = "white" }},
		{"bad brush color", func(c *Config) { c.Brush.Color = "#12" }},
		{"width above max", func(c *Config) { c.Brush.Width = 40 }},
		{"unknown provider", func(c *Config) { c.Guide.Provider = "openai" }},
		{"negative timeout", func(c *Config) { c.Guide.TimeoutSeconds = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestExpandEnv(t *testing.T) {
	env := map[string]string{"HOME": "/home/artist", "EMPTY": ""}
	getenv := func(k string) string { return env[k] }

	assert.Equal(t, "/home/artist/out", expandWith("$HOME/out", getenv))
	assert.Equal(t, "/home/artist", expandWith("${HOME}", getenv))
	assert.Equal(t, "fallback", expandWith("${EMPTY:-fallback}", getenv))
	assert.Equal(t, "", expandWith("${UNSET}", getenv))
	assert.Equal(t, "plain", expandWith("plain", getenv))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "info", Format: "json"}.NewLogger(&buf).Info("shown", "strokes", 3)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"strokes":3`)
}
