// Package config loads tool configuration from a TOML file, with defaults
// matching US Letter at 96 dpi.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Page holds default page geometry for documents that do not declare
// their own sections.
type Page struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Margin  float64 `toml:"margin"`
	Gap     float64 `toml:"gap"`
	Columns int     `toml:"columns"`
}

// Fonts points at the font files shared by measurement and painting.
type Fonts struct {
	Regular    string `toml:"regular"`
	Bold       string `toml:"bold"`
	Italic     string `toml:"italic"`
	BoldItalic string `toml:"bold_italic"`
}

// View controls the viewer's virtualization window.
type View struct {
	Window   int `toml:"window"`
	Overscan int `toml:"overscan"`
}

// Watchdog controls the focus watchdog.
type Watchdog struct {
	IntervalMs int `toml:"interval_ms"`
}

// Config is the root of the TOML file.
type Config struct {
	Page     Page     `toml:"page"`
	Fonts    Fonts    `toml:"fonts"`
	View     View     `toml:"view"`
	Watchdog Watchdog `toml:"watchdog"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Page: Page{Width: 816, Height: 1056, Margin: 96, Gap: 24, Columns: 1},
		View: View{Window: 3, Overscan: 1},
		Watchdog: Watchdog{IntervalMs: 1000},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Page.Width <= 0 || cfg.Page.Height <= 0 {
		return cfg, fmt.Errorf("config: %s: page size must be positive", path)
	}
	if cfg.View.Window < 1 {
		cfg.View.Window = 1
	}
	if cfg.View.Overscan < 0 {
		cfg.View.Overscan = 0
	}
	return cfg, nil
}
