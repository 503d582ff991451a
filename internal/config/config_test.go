package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/session"
)

func TestParse(t *testing.T) {
	input := `
radius = 25
strength = 7.5
max_history = 12
checkpoint_interval = 500ms
move_interval = 16
tap_threshold = 3
export_format = JPG
jpeg_quality = 80
mode = regions
theme = my_custom_theme
save_dir = /tmp/blurred

[limits]
radius_min = 2
radius_max = 120
strength_min = 1
strength_max = 50

[notify]
save = false
copy = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Radius != 25 || cfg.Strength != 7.5 {
		t.Errorf("params = %v/%v", cfg.Radius, cfg.Strength)
	}
	if cfg.MaxHistory != 12 {
		t.Errorf("max_history = %d", cfg.MaxHistory)
	}
	if cfg.CheckpointInterval != 500*time.Millisecond {
		t.Errorf("checkpoint_interval = %v", cfg.CheckpointInterval)
	}
	if cfg.MoveInterval != 16*time.Millisecond {
		t.Errorf("move_interval = %v", cfg.MoveInterval)
	}
	if cfg.TapThreshold != 3 {
		t.Errorf("tap_threshold = %v", cfg.TapThreshold)
	}
	if cfg.ExportFormat != "jpg" || cfg.JPEGQuality != 80 {
		t.Errorf("export = %q q%d", cfg.ExportFormat, cfg.JPEGQuality)
	}
	if cfg.Mode != string(session.ModeRegions) {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/blurred" {
		t.Errorf("Expected save_dir '/tmp/blurred', got '%s'", cfg.SaveDir)
	}
	want := session.Limits{RadiusMin: 2, RadiusMax: 120, StrengthMin: 1, StrengthMax: 50}
	if cfg.Limits != want {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Notify.Save || !cfg.Notify.Copy {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"radius = wide",
		"max_history = 1.5",
		"checkpoint_interval = soon",
		"mode = smudge",
		"[notify]\nsave = maybe",
		"[limits]\nradius_min = x",
		"[theme.x]\nBackground = red",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected an error for %q", input)
		}
	}
}

func TestDefaultsFollowHistory(t *testing.T) {
	cfg := New()
	if cfg.MaxHistory != history.DefaultMaxDepth {
		t.Errorf("max_history = %d, want %d", cfg.MaxHistory, history.DefaultMaxDepth)
	}
	if cfg.CheckpointInterval != history.DefaultInterval {
		t.Errorf("checkpoint_interval = %v, want %v", cfg.CheckpointInterval, history.DefaultInterval)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"limits":  func(c *Config) { c.Limits.RadiusMax = 1 },
		"history": func(c *Config) { c.MaxHistory = 0 },
		"quality": func(c *Config) { c.JPEGQuality = 101 },
		"format":  func(c *Config) { c.ExportFormat = "psd" },
		"tap":     func(c *Config) { c.TapThreshold = -1 },
	}
	for name, mutate := range cases {
		cfg := New()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
	if err := New().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParamsAreClamped(t *testing.T) {
	cfg := New()
	cfg.Radius = 1000
	cfg.Strength = 0.5
	p := cfg.Params()
	if p.Radius != 300 || p.Strength != 2 {
		t.Errorf("params = %+v", p)
	}
	if len(cfg.SessionOptions()) == 0 || len(cfg.EncodeOptions()) == 0 {
		t.Error("expected options")
	}
}

func TestCircular(t *testing.T) {
	input := `radius = 33
strength = 4
checkpoint_interval = 1s
mode = regions
theme = dark
save_dir = /home/user/blurred

[limits]
radius_max = 200

[notify]
save = true
copy = false

[theme.Custom]
Name = Custom
Background = #000000
BrushOutline = #00FF0080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	generated := cfg.String()
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if cfg.Radius != cfg2.Radius || cfg.Strength != cfg2.Strength {
		t.Errorf("params mismatch: %v/%v vs %v/%v", cfg.Radius, cfg.Strength, cfg2.Radius, cfg2.Strength)
	}
	if cfg.CheckpointInterval != cfg2.CheckpointInterval || cfg.MoveInterval != cfg2.MoveInterval {
		t.Errorf("interval mismatch")
	}
	if cfg.Mode != cfg2.Mode || cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.Limits != cfg2.Limits {
		t.Errorf("Limits mismatch: %+v vs %+v", cfg.Limits, cfg2.Limits)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	t1 := cfg.Themes["Custom"]
	t2 := cfg2.Themes["Custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestResolveTheme(t *testing.T) {
	cfg, err := Parse(strings.NewReader("[theme.mine]\nBackground = #010203\n"))
	if err != nil {
		t.Fatal(err)
	}
	th, err := cfg.ResolveTheme("mine", nil)
	if err != nil || th.Background.B != 3 {
		t.Fatalf("config theme: %+v %v", th, err)
	}
	th, err = cfg.ResolveTheme("dark", nil)
	if err != nil || th.Name != "Dark" {
		t.Fatalf("builtin theme: %+v %v", th, err)
	}
}

func TestLoaderPaths(t *testing.T) {
	home := t.TempDir()
	l := &Loader{Version: "1.0", Home: home}
	if p := l.GetConfigPath(); p != "" {
		t.Fatalf("expected no config, got %s", p)
	}
	cfg, err := l.Load()
	if err != nil || cfg.Radius != New().Radius {
		t.Fatalf("defaults: %+v %v", cfg, err)
	}

	cfg.Radius = 77
	path, err := l.Save(cfg)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(home, ".config", "blurbrush", "config.rc") {
		t.Errorf("saved to %s", path)
	}
	loaded, err := l.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Radius != 77 {
		t.Errorf("radius = %v", loaded.Radius)
	}

	override := filepath.Join(t.TempDir(), "custom.rc")
	if err := os.WriteFile(override, []byte("radius = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l.OverridePath = override
	if p := l.GetConfigPath(); p != override {
		t.Errorf("override ignored: %s", p)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	override := filepath.Join(t.TempDir(), "bad.rc")
	if err := os.WriteFile(override, []byte("max_history = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{OverridePath: override, Home: t.TempDir()}
	if _, err := l.Load(); err == nil {
		t.Fatal("expected a validation error")
	}
}
