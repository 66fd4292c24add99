// Package config loads MangaSketch settings from defaults, an optional TOML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"MangaSketch/internal/guide"
	"MangaSketch/internal/state"
)

var (
	ErrMissingCredential = errors.New("no API key for the guide backend")
	ErrInvalid           = errors.New("invalid configuration")
)

// Config is the full application configuration.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Brush  BrushConfig  `toml:"brush"`
	Export ExportConfig `toml:"export"`
	Guide  GuideConfig  `toml:"guide"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

type BrushConfig struct {
	Color    string  `toml:"color"`
	Width    float64 `toml:"width"`
	MaxWidth float64 `toml:"max_width"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type GuideConfig struct {
	Provider    string `toml:"provider"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	TextModel   string `toml:"text_model"`
	VisionModel string `toml:"vision_model"`
	MaxTokens   int    `toml:"max_tokens"`
	// TimeoutSeconds of zero leaves requests without a deadline.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// ServerURL points the desktop app at a remote MangaSketch server
	// instead of calling the backend itself.
	ServerURL string `toml:"server_url"`
	// Discover looks for a guide server over mDNS when nothing else is set.
	Discover bool `toml:"discover"`
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	Advertise bool   `toml:"advertise"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() Config {
	return Config{
		Canvas: CanvasConfig{Width: 800, Height: 600, Background: "#ffffff"},
		Brush:  BrushConfig{Color: state.DefaultColor, Width: state.DefaultWidth, MaxWidth: state.MaxWidth},
		Export: ExportConfig{Dir: "."},
		Guide:  GuideConfig{Provider: guide.ProviderGemini, Discover: true},
		Server: ServerConfig{Addr: ":8888"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty) over the defaults, expands ${VAR}
// references, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	ExpandEnvConfig(&cfg)
	ApplyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg.Guide.APIKey == "" {
		switch cfg.Guide.Provider {
		case guide.ProviderAnthropic:
			cfg.Guide.APIKey = getenv("ANTHROPIC_API_KEY")
		default:
			cfg.Guide.APIKey = firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY"))
		}
	}
	if v := getenv("MANGASKETCH_GUIDE_SERVER"); v != "" {
		cfg.Guide.ServerURL = v
	}
	if v := getenv("MANGASKETCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv("MANGASKETCH_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := getenv("MANGASKETCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	}
	if _, err := state.NormalizeColor(c.Canvas.Background); err != nil {
		return fmt.Errorf("%w: canvas.background: %v", ErrInvalid, err)
	}
	if _, err := state.NormalizeColor(c.Brush.Color); err != nil {
		return fmt.Errorf("%w: brush.color: %v", ErrInvalid, err)
	}
	if c.Brush.Width <= 0 || c.Brush.MaxWidth <= 0 || c.Brush.Width > c.Brush.MaxWidth {
		return fmt.Errorf("%w: brush width %v (max %v)", ErrInvalid, c.Brush.Width, c.Brush.MaxWidth)
	}
	switch c.Guide.Provider {
	case guide.ProviderGemini, guide.ProviderAnthropic:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalid, guide.ErrUnknownProvider, c.Guide.Provider)
	}
	if c.Guide.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: guide.timeout_seconds is negative", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// RequireCredential fails when no backend API key is configured.
func (c Config) RequireCredential() error {
	if c.Guide.APIKey == "" {
		return ErrMissingCredential
	}
	return nil
}

// Settings are the initial tool settings of a new view.
func (c Config) Settings() state.Settings {
	return state.Settings{Tool: state.ToolBrush, Color: c.Brush.Color, Width: c.Brush.Width}
}

func (c GuideConfig) Options() guide.Options {
	return guide.Options{
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		MaxTokens: c.MaxTokens,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
