package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/relmap/internal/interact"
	"github.com/msalah0e/relmap/internal/layout"
)

// Config holds relmap configuration.
type Config struct {
	UI       UIConfig       `toml:"ui"`
	Layout   LayoutConfig   `toml:"layout"`
	Surface  SurfaceConfig  `toml:"surface"`
	Parallel ParallelConfig `toml:"parallel"`
	Log      LogConfig      `toml:"log"`
	Journal  JournalConfig  `toml:"journal"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

// LayoutConfig holds force simulation parameters.
type LayoutConfig struct {
	Repulsion       float64 `toml:"repulsion"`
	LinkDistance    float64 `toml:"link_distance"`
	CollisionRadius float64 `toml:"collision_radius"`
	AlphaMin        float64 `toml:"alpha_min"`
	AlphaDecay      float64 `toml:"alpha_decay"`
	VelocityDecay   float64 `toml:"velocity_decay"`
	ReheatTarget    float64 `toml:"reheat_target"`
	MaxTicks        int     `toml:"max_ticks"`
	Seed            uint64  `toml:"seed"`
}

// SurfaceConfig is the drawing area. The layout is centered on it.
type SurfaceConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// ParallelConfig controls batch layouts.
type ParallelConfig struct {
	Concurrency int `toml:"concurrency"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// JournalConfig controls the pipeline event journal.
type JournalConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	d := layout.DefaultConfig()
	return &Config{
		UI: UIConfig{Color: true},
		Layout: LayoutConfig{
			Repulsion:       d.Repulsion,
			LinkDistance:    d.LinkDistance,
			CollisionRadius: 0,
			AlphaMin:        d.AlphaMin,
			AlphaDecay:      d.AlphaDecay,
			VelocityDecay:   d.VelocityDecay,
			ReheatTarget:    d.ReheatTarget,
			MaxTicks:        d.MaxTicks,
			Seed:            d.Seed,
		},
		Surface:  SurfaceConfig{Width: 960, Height: 600},
		Parallel: ParallelConfig{Concurrency: 4},
		Log:      LogConfig{Level: "info"},
		Journal:  JournalConfig{Enabled: true},
	}
}

// LayoutConfig converts the layout section into engine parameters centered
// on the surface.
func (c *Config) LayoutConfig() layout.Config {
	return layout.Config{
		Repulsion:       c.Layout.Repulsion,
		CenterX:         c.Surface.Width / 2,
		CenterY:         c.Surface.Height / 2,
		LinkDistance:    c.Layout.LinkDistance,
		CollisionRadius: c.Layout.CollisionRadius,
		AlphaMin:        c.Layout.AlphaMin,
		AlphaDecay:      c.Layout.AlphaDecay,
		VelocityDecay:   c.Layout.VelocityDecay,
		ReheatTarget:    c.Layout.ReheatTarget,
		MaxTicks:        c.Layout.MaxTicks,
		Seed:            c.Layout.Seed,
	}
}

// SurfaceSize returns the drawing area.
func (c *Config) SurfaceSize() interact.Surface {
	return interact.Surface{Width: c.Surface.Width, Height: c.Surface.Height}
}

// ConfigDir returns the relmap config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "relmap")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config, then overlays a .relmap.toml found in the
// working directory or one of its parents. Missing files keep defaults.
func Load() *Config {
	cfg := Default()
	if data, err := os.ReadFile(Path()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}
	if project := findProjectConfig(); project != "" {
		if data, err := os.ReadFile(project); err == nil {
			_ = toml.Unmarshal(data, cfg)
		}
	}
	return cfg
}

// findProjectConfig walks up from the working directory looking for
// .relmap.toml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".relmap.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
