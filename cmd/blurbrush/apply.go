package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/blurbrush/internal/clipboard"
	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/region"
	"github.com/example/blurbrush/internal/session"
)

var (
	readClipboardFn  = clipboard.ReadImage
	writeClipboardFn = clipboard.WriteImage
)

// applyCmd blurs regions given on the command line through a region editor.
type applyCmd struct {
	file          string
	output        string
	formatName    string
	format        imageio.Format
	fromClipboard bool
	toClipboard   bool
	dataURI       bool
	radius        float64
	strength      float64
	regions       []region.Region
	*root
	fs *flag.FlagSet
}

func (a *applyCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

var applyFlagNames = map[string]struct{}{
	"file": {}, "output": {}, "format": {}, "radius": {}, "strength": {},
	"from-clipboard": {}, "from-clip": {}, "to-clipboard": {}, "to-clip": {}, "data-uri": {},
	"h": {}, "help": {},
}

var applyBoolFlags = map[string]struct{}{
	"from-clipboard": {}, "from-clip": {}, "to-clipboard": {}, "to-clip": {}, "data-uri": {},
	"h": {}, "help": {},
}

func parseApplyCmd(args []string, r *root) (*applyCmd, error) {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	a := &applyCmd{root: r.subcommand("apply"), fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "input image file")
	fs.StringVar(&a.output, "output", "", "output file path (defaults to the input file)")
	fs.StringVar(&a.formatName, "format", "", "output format: png, jpeg, gif, tiff or bmp (defaults to the output extension)")
	fs.BoolVar(&a.fromClipboard, "from-clipboard", false, "read the input image from the clipboard")
	fs.BoolVar(&a.fromClipboard, "from-clip", false, "read the input image from the clipboard (alias)")
	fs.BoolVar(&a.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&a.toClipboard, "to-clip", false, "copy the result to the clipboard (alias)")
	fs.BoolVar(&a.dataURI, "data-uri", false, "print the result as a data URI")
	fs.Float64Var(&a.radius, "radius", r.config.Radius, "blur radius in image pixels")
	fs.Float64Var(&a.strength, "strength", r.config.Strength, "blur strength")

	flagArgs, positionals, err := splitApplyArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(positionals) < 1 {
		return nil, &UsageError{of: a}
	}
	if a.regions, err = parseRegions(positionals); err != nil {
		return nil, err
	}

	if a.fromClipboard {
		if a.file != "" {
			return nil, fmt.Errorf("-file and -from-clipboard cannot be combined")
		}
		if a.output == "" && !a.toClipboard && !a.dataURI {
			return nil, fmt.Errorf("output file is required when reading from the clipboard")
		}
	} else {
		if a.file == "" {
			return nil, fmt.Errorf("input file is required")
		}
		if a.output == "" && !a.toClipboard && !a.dataURI {
			a.output = a.file
		}
	}

	def, err := imageio.ParseFormat(r.config.ExportFormat)
	if err != nil {
		def = imageio.PNG
	}
	switch {
	case a.formatName != "":
		if a.format, err = imageio.ParseFormat(a.formatName); err != nil {
			return nil, err
		}
	case a.output != "":
		a.format = imageio.FormatFromFilename(a.output, def)
	default:
		a.format = def
	}
	return a, nil
}

// parseRegions reads "point X Y" and "line X0 Y0 X1 Y1" groups.
func parseRegions(tokens []string) ([]region.Region, error) {
	var regs []region.Region
	for i := 0; i < len(tokens); {
		kind := strings.ToLower(tokens[i])
		var n int
		switch kind {
		case "point":
			n = 2
		case "line":
			n = 4
		default:
			return nil, fmt.Errorf("unsupported region %q", tokens[i])
		}
		if i+1+n > len(tokens) {
			return nil, fmt.Errorf("%s requires %d numeric arguments", kind, n)
		}
		vals, err := expectFloats(tokens[i+1:i+1+n], kind)
		if err != nil {
			return nil, err
		}
		reg := region.Region{Kind: region.KindPoint, Start: geom.Pt(vals[0], vals[1]), End: geom.Pt(vals[0], vals[1])}
		if kind == "line" {
			reg.Kind = region.KindLine
			reg.End = geom.Pt(vals[2], vals[3])
		}
		regs = append(regs, reg)
		i += 1 + n
	}
	return regs, nil
}

func expectFloats(args []string, kind string) ([]float64, error) {
	vals := make([]float64, len(args))
	for i, raw := range args {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", kind, raw)
		}
		vals[i] = v
	}
	return vals, nil
}

func (a *applyCmd) Run() error {
	src, err := a.loadSource()
	if err != nil {
		return err
	}
	opts := append(a.config.SessionOptions(), session.WithParams(session.Params{Radius: a.radius, Strength: a.strength}))
	ed := session.NewRegions(opts...)
	ed.Load(src)
	params := ed.Params()
	for _, reg := range a.regions {
		reg.Radius, reg.Strength = params.Radius, params.Strength
		if _, err := ed.Add(reg); err != nil {
			return fmt.Errorf("apply %s: %w", reg, err)
		}
	}
	result := ed.Display()

	if a.output != "" {
		if err := a.save(ed); err != nil {
			return err
		}
	}
	if a.dataURI {
		uri, err := imageio.DataURI(result, a.format, a.config.EncodeOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, uri)
	}
	if a.toClipboard {
		if err := writeClipboardFn(result); err != nil {
			return fmt.Errorf("copy image to clipboard: %w", err)
		}
		detail := "image"
		if a.output != "" {
			detail = filepath.Base(a.output)
		}
		fmt.Fprintf(a.stderr, "copied %s to clipboard\n", detail)
		a.notifyCopy(detail, result)
	}
	return nil
}

func (a *applyCmd) save(ed *session.Regions) error {
	out, err := os.Create(a.output)
	if err != nil {
		return err
	}
	defer func(out *os.File) {
		if err := out.Close(); err != nil {
			log.Printf("error closing %q: %v", out.Name(), err)
		}
	}(out)
	if err := ed.Export(out, a.format, a.config.EncodeOptions()...); err != nil {
		return err
	}
	saved := a.output
	if abs, err := filepath.Abs(a.output); err == nil {
		saved = abs
	}
	fmt.Fprintf(a.stderr, "saved %s\n", saved)
	a.notifySave(saved)
	return nil
}

func (a *applyCmd) loadSource() (image.Image, error) {
	if a.fromClipboard {
		img, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("read clipboard image: %w", err)
		}
		return img, nil
	}
	return imageio.Load(a.file)
}

// splitApplyArgs separates flags from region tokens so flags may follow the
// regions. Negative coordinates are not mistaken for flags.
func splitApplyArgs(args []string) ([]string, []string, error) {
	var flags []string
	var positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		parts := strings.SplitN(name, "=", 2)
		base := strings.ToLower(parts[0])
		if _, ok := applyFlagNames[base]; !ok {
			positionals = append(positionals, arg)
			continue
		}
		// Normalise to single dash form for the flag parser.
		norm := "-" + base
		if len(parts) == 2 {
			flags = append(flags, norm+"="+parts[1])
			continue
		}
		if _, ok := applyBoolFlags[base]; ok {
			flags = append(flags, norm)
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s requires a value", arg)
		}
		flags = append(flags, norm, args[i+1])
		i++
	}
	return flags, positionals, nil
}
