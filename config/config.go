/*
Package config holds the settings of the exrmip command, read from an
optional TOML file such as:

	placeholder = "#"
	marker = "m"
	verbose = true
	preview_size = 256
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
)

// Config is the set of settings the command reads.
type Config struct {
	// Placeholder marks where the level index goes in a filename pattern.
	Placeholder string `toml:"placeholder"`

	// Marker replaces the placeholder in the output filename.
	Marker string `toml:"marker"`

	Verbose bool `toml:"verbose"`

	// PreviewSize is the longest side of preview images, zero to keep the
	// size of the level.
	PreviewSize int `toml:"preview_size"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Placeholder: "#",
		Marker:      "m",
		PreviewSize: 512,
	}
}

// Load reads the named TOML file over the defaults.
func Load(name string) (Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads TOML from r over the defaults. Unknown keys are an error.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func singleRune(name, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("config: %s must be a single character, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsDigit(r) {
		return 0, fmt.Errorf("config: %s must not be a digit, got %q", name, s)
	}
	return r, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	p, err := singleRune("placeholder", c.Placeholder)
	if err != nil {
		return err
	}
	m, err := singleRune("marker", c.Marker)
	if err != nil {
		return err
	}
	if p == m {
		return errors.New("config: placeholder and marker must differ")
	}
	if c.PreviewSize < 0 {
		return fmt.Errorf("config: preview_size must not be negative, got %d", c.PreviewSize)
	}
	return nil
}

// PlaceholderRune returns the placeholder as a rune. The config must be
// valid.
func (c Config) PlaceholderRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Placeholder)
	return r
}

// MarkerRune returns the marker as a rune. The config must be valid.
func (c Config) MarkerRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Marker)
	return r
}
