package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/blurbrush/internal/appstate"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/session"
)

// editCmd opens the editor window.
type editCmd struct {
	file          string
	output        string
	mode          string
	formatName    string
	fromClipboard bool
	radius        float64
	strength      float64
	*root
	fs *flag.FlagSet
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	e := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.file, "file", "", "image file to open")
	fs.StringVar(&e.output, "output", "", "file written by Ctrl+S (defaults to a timestamped file in save_dir)")
	fs.StringVar(&e.mode, "mode", r.config.Mode, "editor mode: brush or regions")
	fs.StringVar(&e.formatName, "format", r.config.ExportFormat, "export format when the output has no known extension")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "open the image on the clipboard")
	fs.BoolVar(&e.fromClipboard, "from-clip", false, "open the image on the clipboard (alias)")
	fs.Float64Var(&e.radius, "radius", r.config.Radius, "brush radius in image pixels")
	fs.Float64Var(&e.strength, "strength", r.config.Strength, "blur strength")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: e}
	}
	if e.fromClipboard && e.file != "" {
		return nil, fmt.Errorf("-file and -from-clipboard cannot be combined")
	}
	if _, err := session.ParseMode(e.mode); err != nil {
		return nil, err
	}
	if _, err := imageio.ParseFormat(e.formatName); err != nil {
		return nil, err
	}
	return e, nil
}

// options builds the window configuration without opening the window.
func (e *editCmd) options() ([]appstate.Option, error) {
	mode, err := session.ParseMode(e.mode)
	if err != nil {
		return nil, err
	}
	format, err := imageio.ParseFormat(e.formatName)
	if err != nil {
		return nil, err
	}
	cfg := e.root.config
	sessionOpts := append(cfg.SessionOptions(), session.WithParams(session.Params{Radius: e.radius, Strength: e.strength}))
	opts := []appstate.Option{
		appstate.WithMode(mode),
		appstate.WithOutput(e.output),
		appstate.WithSaveDir(expandHome(cfg.SaveDir)),
		appstate.WithFormat(format),
		appstate.WithEncodeOptions(cfg.EncodeOptions()...),
		appstate.WithSessionOptions(sessionOpts...),
		appstate.WithTheme(e.root.activeTheme),
		appstate.WithNotifier(e.root.notifier),
	}
	img, err := e.loadSource()
	if err != nil {
		return nil, err
	}
	if img != nil {
		opts = append(opts, appstate.WithImage(img))
	}
	return opts, nil
}

func (e *editCmd) loadSource() (image.Image, error) {
	switch {
	case e.fromClipboard:
		img, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return img, nil
	case e.file != "":
		return imageio.Load(e.file)
	}
	return nil, nil
}

func (e *editCmd) Run() error {
	opts, err := e.options()
	if err != nil {
		return err
	}
	st, err := appstate.New(opts...)
	if err != nil {
		return err
	}
	st.Run()
	return nil
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
