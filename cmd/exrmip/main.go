package main

import (
	"bytes"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	exr "github.com/mrjoshuak/go-openexr"
	mipmap "github.com/ranmasao/OpenEXR-mipmap"
	"github.com/ranmasao/OpenEXR-mipmap/config"
	"github.com/urfave/cli/v2"
)

const description = `PATTERN is a filename with a placeholder character ('#' by default) where
the mip level index goes, i.e. for the file sequence mip0.exr, mip1.exr,
mip2.exr, etc. use mip#.exr.

The result is written to PATTERN with the placeholder replaced by the marker
character ('m' by default), overwriting any existing file.

Restrictions:
* levels must be consecutive from 0 up to at most 9;
* the first level's width and height must be powers of two;
* every level must be half the size of the previous one;
* all levels must have R, G and B channels of the same pixel type.`

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// settings layers the configuration file and command line flags over the
// defaults.
func settings(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if c.IsSet("config") {
		var err error
		if cfg, err = config.Load(c.String("config")); err != nil {
			return config.Config{}, err
		}
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	if c.IsSet("placeholder") {
		cfg.Placeholder = c.String("placeholder")
	}
	if c.IsSet("marker") {
		cfg.Marker = c.String("marker")
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "exrmip",
	})
	logger.SetLevel(log.WarnLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func pack(c *cli.Context) error {
	cfg, err := settings(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger := newLogger(c.App.ErrWriter, cfg.Verbose)
	p := mipmap.New(
		logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}),
		mipmap.WithPlaceholder(cfg.PlaceholderRune()),
		mipmap.WithMarker(cfg.MarkerRune()),
	)

	out, err := p.Pack(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "OK, \"%s\" written.\n", out)
	return nil
}

func inspect(c *cli.Context) error {
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}
	f, err := exr.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return cli.Exit(err, 1)
	}
	h := f.Header(0)
	if h == nil {
		return cli.Exit("missing header", 1)
	}

	w := c.App.Writer

	var channels []string
	if cl := h.Channels(); cl != nil {
		for i := 0; i < cl.Len(); i++ {
			ch := cl.At(i)
			channels = append(channels, fmt.Sprintf("%s:%d", ch.Name, int(ch.Type)))
		}
	}

	dw := h.DataWindow()
	fmt.Fprintf(w, "%s\n", c.Args().First())
	fmt.Fprintf(w, "  data window: (%d, %d) - (%d, %d)\n", dw.Min.X, dw.Min.Y, dw.Max.X, dw.Max.Y)
	fmt.Fprintf(w, "  channels:    %s\n", strings.Join(channels, " "))
	fmt.Fprintf(w, "  compression: %s\n", h.Compression())
	fmt.Fprintf(w, "  line order:  %d\n", int(h.LineOrder()))
	if a := h.Get(exr.AttrNameType); a != nil {
		fmt.Fprintf(w, "  type:        %v\n", a.Value)
	}

	if !h.IsTiled() {
		return nil
	}

	td := h.TileDescription()
	fmt.Fprintf(w, "  tiles:       %dx%d, %d levels\n", td.XSize, td.YSize, h.NumXLevels())
	for l := 0; l < h.NumXLevels(); l++ {
		state := "missing"
		if mipmap.LevelPresent(f, l) {
			state = "present"
		}
		fmt.Fprintf(w, "  level %d: %dx%d, %dx%d tiles, %s\n", l, h.LevelWidth(l), h.LevelHeight(l), h.NumXTiles(l), h.NumYTiles(l), state)
	}

	return nil
}

func preview(c *cli.Context) error {
	cfg, err := settings(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	size := cfg.PreviewSize
	if c.IsSet("size") {
		size = c.Int("size")
	}

	src, dst := c.Args().Get(0), c.Args().Get(1)
	format := strings.TrimPrefix(filepath.Ext(dst), ".")

	f, err := os.Open(src)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	var b mipmap.PixelBuffer
	if err := b.DecodeLevel(f, c.Int("level")); err != nil {
		return cli.Exit(err, 1)
	}

	out, err := os.Create(dst)
	if err != nil {
		return cli.Exit(err, 1)
	}

	err = mipmap.WritePreview(out, &b, format, size)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.Exit(err, 1)
	}

	newLogger(c.App.ErrWriter, cfg.Verbose).Info("Preview written", "file", dst, "level", c.Int("level"))
	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "exrmip"
	app.Usage = "OpenEXR mip map packer"
	app.Version = "0.1.0"
	app.ArgsUsage = "PATTERN"
	app.Description = description

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"EXRMIP_CONFIG"},
			Usage:   "path to TOML configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"EXRMIP_VERBOSE"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:        "placeholder",
			DefaultText: "#",
			Usage:       "placeholder character in PATTERN",
		},
		&cli.StringFlag{
			Name:        "marker",
			DefaultText: "m",
			Usage:       "character replacing the placeholder in the output filename",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			cli.ShowAppHelpAndExit(c, 1)
		}
		return pack(c)
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Pack mip level files into one tiled file",
			Description: description,
			ArgsUsage:   "PATTERN",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return pack(c)
			},
		},
		{
			Name:      "inspect",
			Usage:     "Describe the header and levels of a file",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return inspect(c)
			},
		},
		{
			Name:      "preview",
			Usage:     "Render one level of a file as PNG or GIF",
			ArgsUsage: "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "level",
					Usage: "mip level to render",
				},
				&cli.IntFlag{
					Name:        "size",
					DefaultText: "512",
					Usage:       "longest side of the preview, 0 to keep the level size",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return preview(c)
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		stdlog.Fatal(err)
	}
}
