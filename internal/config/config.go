package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/session"
	"github.com/example/blurbrush/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// Config holds the application configuration.
type Config struct {
	Radius             float64
	Strength           float64
	MaxHistory         int
	CheckpointInterval time.Duration
	MoveInterval       time.Duration
	TapThreshold       float64
	ExportFormat       string
	JPEGQuality        int
	SaveDir            string
	Mode               string
	Theme              string
	Limits             session.Limits
	Notify             Notify
	Themes             map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Radius:             session.DefaultParams.Radius,
		Strength:           session.DefaultParams.Strength,
		MaxHistory:         history.DefaultMaxDepth,
		CheckpointInterval: history.DefaultInterval,
		MoveInterval:       session.DefaultMoveInterval,
		TapThreshold:       session.DefaultTapThreshold,
		ExportFormat:       "png",
		JPEGQuality:        92,
		Mode:               string(session.ModeBrush),
		Theme:              "", // Default to empty to allow fallback to Env/Default
		Limits:             session.DefaultLimits,
		Themes:             make(map[string]*theme.Theme),
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("[limits]: %w", err)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be at least 1, got %d", c.MaxHistory)
	}
	if c.CheckpointInterval < 0 || c.MoveInterval < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if c.TapThreshold < 0 {
		return fmt.Errorf("tap_threshold must not be negative")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within 1-100, got %d", c.JPEGQuality)
	}
	if _, err := imageio.ParseFormat(c.ExportFormat); err != nil {
		return fmt.Errorf("export_format: %w", err)
	}
	if _, err := session.ParseMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// Params returns the configured brush parameters.
func (c *Config) Params() session.Params {
	return c.Limits.Clamp(session.Params{Radius: c.Radius, Strength: c.Strength})
}

// SessionOptions returns the editor options described by c.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithLimits(c.Limits),
		session.WithParams(c.Params()),
		session.WithMaxHistory(c.MaxHistory),
		session.WithCheckpointInterval(c.CheckpointInterval),
		session.WithMoveInterval(c.MoveInterval),
		session.WithTapThreshold(c.TapThreshold),
	}
}

// EncodeOptions returns the export options described by c.
func (c *Config) EncodeOptions() []imageio.EncodeOption {
	return []imageio.EncodeOption{imageio.WithJPEGQuality(c.JPEGQuality)}
}

// ResolveTheme returns the theme called name, preferring themes defined in
// the config file over those found by l.
func (c *Config) ResolveTheme(name string, l *theme.Loader) (*theme.Theme, error) {
	if t, ok := c.Themes[name]; ok {
		return t, nil
	}
	if l == nil {
		l = theme.NewLoader()
	}
	return l.Load(name)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "radius = %s\n", formatFloat(c.Radius))
	fmt.Fprintf(&sb, "strength = %s\n", formatFloat(c.Strength))
	fmt.Fprintf(&sb, "max_history = %d\n", c.MaxHistory)
	fmt.Fprintf(&sb, "checkpoint_interval = %s\n", c.CheckpointInterval)
	fmt.Fprintf(&sb, "move_interval = %s\n", c.MoveInterval)
	fmt.Fprintf(&sb, "tap_threshold = %s\n", formatFloat(c.TapThreshold))
	fmt.Fprintf(&sb, "export_format = %s\n", c.ExportFormat)
	fmt.Fprintf(&sb, "jpeg_quality = %d\n", c.JPEGQuality)
	fmt.Fprintf(&sb, "mode = %s\n", c.Mode)
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[limits]\n")
	fmt.Fprintf(&sb, "radius_min = %s\n", formatFloat(c.Limits.RadiusMin))
	fmt.Fprintf(&sb, "radius_max = %s\n", formatFloat(c.Limits.RadiusMax))
	fmt.Fprintf(&sb, "strength_min = %s\n", formatFloat(c.Limits.StrengthMin))
	fmt.Fprintf(&sb, "strength_max = %s\n", formatFloat(c.Limits.StrengthMax))
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name = %s\n", t.Name)
		theme.Each(t, func(field string, col color.RGBA) {
			fmt.Fprintf(&sb, "%s = %s\n", field, theme.Hex(col))
		})
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
