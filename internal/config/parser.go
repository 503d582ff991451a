package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/blurbrush/internal/session"
	"github.com/example/blurbrush/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			currentTheme = nil

			if strings.HasPrefix(strings.ToLower(currentSection), "theme.") {
				themeName := currentSection[len("theme."):]
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case strings.EqualFold(currentSection, "notify"):
			err = setNotifyField(&cfg.Notify, key, value)
		case strings.EqualFold(currentSection, "limits"):
			err = setLimitsField(&cfg.Limits, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d [%s]: %w", lineNo, section, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "radius":
		cfg.Radius, err = parseFloat(key, value)
	case "strength":
		cfg.Strength, err = parseFloat(key, value)
	case "max_history":
		cfg.MaxHistory, err = parseInt(key, value)
	case "checkpoint_interval":
		cfg.CheckpointInterval, err = parseDuration(key, value)
	case "move_interval":
		cfg.MoveInterval, err = parseDuration(key, value)
	case "tap_threshold":
		cfg.TapThreshold, err = parseFloat(key, value)
	case "export_format":
		cfg.ExportFormat = strings.ToLower(value)
	case "jpeg_quality":
		cfg.JPEGQuality, err = parseInt(key, value)
	case "mode":
		var m session.Mode
		m, err = session.ParseMode(value)
		cfg.Mode = string(m)
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return err
}

func setLimitsField(l *session.Limits, key, value string) error {
	v, err := parseFloat(key, value)
	if err != nil {
		return err
	}
	switch strings.ToLower(key) {
	case "radius_min":
		l.RadiusMin = v
	case "radius_max":
		l.RadiusMax = v
	case "strength_min":
		l.StrengthMin = v
	case "strength_max":
		l.StrengthMax = v
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	return v, nil
}

// parseDuration accepts Go durations ("350ms") and bare milliseconds.
func parseDuration(key, value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for key %s: %w", key, err)
	}
	return d, nil
}
