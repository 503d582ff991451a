package theme

import (
	"image/color"
	"strings"
)

// Theme defines the color palette of the editor window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window area around the image
	Foreground color.RGBA // Default text color

	// Toolbar
	ToolbarBackground  color.RGBA
	ButtonBackground   color.RGBA
	ButtonActive       color.RGBA // Selected mode button
	ButtonText         color.RGBA
	ButtonTextDisabled color.RGBA // Undo/redo with nothing to do
	ButtonBorder       color.RGBA

	// Status line
	StatusBackground color.RGBA
	StatusText       color.RGBA

	// Canvas
	BrushOutline color.RGBA // Radius preview under the pointer
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:               "Default",
		Background:         color.RGBA{220, 220, 220, 255},
		Foreground:         color.RGBA{0, 0, 0, 255},
		ToolbarBackground:  color.RGBA{220, 220, 220, 255},
		ButtonBackground:   color.RGBA{200, 200, 200, 255},
		ButtonActive:       color.RGBA{160, 190, 230, 255},
		ButtonText:         color.RGBA{0, 0, 0, 255},
		ButtonTextDisabled: color.RGBA{140, 140, 140, 255},
		ButtonBorder:       color.RGBA{0, 0, 0, 255},
		StatusBackground:   color.RGBA{235, 235, 235, 255},
		StatusText:         color.RGBA{40, 40, 40, 255},
		BrushOutline:       color.RGBA{255, 0, 0, 200},
		CheckerLight:       color.RGBA{220, 220, 220, 255},
		CheckerDark:        color.RGBA{192, 192, 192, 255},
	}
}

// Dark returns the built-in dark theme.
func Dark() *Theme {
	return &Theme{
		Name:               "Dark",
		Background:         color.RGBA{30, 30, 30, 255},
		Foreground:         color.RGBA{230, 230, 230, 255},
		ToolbarBackground:  color.RGBA{45, 45, 45, 255},
		ButtonBackground:   color.RGBA{70, 70, 70, 255},
		ButtonActive:       color.RGBA{50, 90, 140, 255},
		ButtonText:         color.RGBA{235, 235, 235, 255},
		ButtonTextDisabled: color.RGBA{120, 120, 120, 255},
		ButtonBorder:       color.RGBA{110, 110, 110, 255},
		StatusBackground:   color.RGBA{38, 38, 38, 255},
		StatusText:         color.RGBA{200, 200, 200, 255},
		BrushOutline:       color.RGBA{255, 200, 0, 200},
		CheckerLight:       color.RGBA{80, 80, 80, 255},
		CheckerDark:        color.RGBA{60, 60, 60, 255},
	}
}

// Builtin returns the built-in theme with the given name, or nil.
func Builtin(name string) *Theme {
	switch strings.ToLower(name) {
	case "default", "light":
		return Default()
	case "dark":
		return Dark()
	}
	return nil
}
