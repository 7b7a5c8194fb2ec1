package mipmap

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// placeholderIndex checks that pattern holds exactly one placeholder.
func placeholderIndex(pattern string, placeholder rune) error {
	switch strings.Count(pattern, string(placeholder)) {
	case 0:
		return fmt.Errorf("%w: placeholder %q not found in %q", ErrPattern, placeholder, pattern)
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: more than one placeholder %q in %q", ErrPattern, placeholder, pattern)
	}
}

func substitute(pattern string, placeholder, r rune) string {
	return strings.Replace(pattern, string(placeholder), string(r), 1)
}

// OutputName returns the name Pack writes for pattern.
func (p *Packer) OutputName(pattern string) (string, error) {
	if err := placeholderIndex(pattern, p.placeholder); err != nil {
		return "", err
	}
	return substitute(pattern, p.placeholder, p.marker), nil
}

// loadLevels reads levels 0 to MaxLevels-1 in order. The sequence ends at the
// first level that cannot be loaded, whether it is missing or unreadable.
func (p *Packer) loadLevels(pattern string) []*PixelBuffer {
	var levels []*PixelBuffer
	for i := 0; i < MaxLevels; i++ {
		name := substitute(pattern, p.placeholder, rune('0'+i))

		b := new(PixelBuffer)
		if err := b.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				p.logger.Printf("No level %d at \"%s\", stopping", i, name)
			} else {
				p.logger.Printf("Failed to load level %d from \"%s\", stopping: %v", i, name, err)
			}
			break
		}

		p.logger.Printf("Loaded level %d from \"%s\": %dx%d %s, %s line order", i, name, b.Width(), b.Height(), b.Encoding(), b.LineOrder())
		levels = append(levels, b)
	}
	return levels
}

// normalize flips every level not already in increasing line order so the
// whole chain shares the order written to the output.
func (p *Packer) normalize(levels []*PixelBuffer) error {
	for i, b := range levels {
		if b.LineOrder() == Increasing {
			continue
		}
		p.logger.Printf("Flipping level %d to increasing line order", i)
		if err := b.FlipRows(); err != nil {
			return fmt.Errorf("level %d: %w", i, err)
		}
	}
	return nil
}

// Pack reads the levels named by pattern, with the placeholder replaced by
// the digits 0 to 9, validates them as a mip chain and writes them to a
// single tiled file named by pattern with the placeholder replaced by the
// marker. It returns the name of the file written.
func (p *Packer) Pack(pattern string) (string, error) {
	out, err := p.OutputName(pattern)
	if err != nil {
		return "", err
	}

	levels := p.loadLevels(pattern)

	if err := Validate(levels); err != nil {
		return "", err
	}

	if err := p.normalize(levels); err != nil {
		return "", err
	}

	w := NewWriter()
	for i, b := range levels {
		if err := w.AddLevel(b); err != nil {
			return "", fmt.Errorf("adding level %d: %w", i, err)
		}
	}

	p.logger.Printf("Writing %d levels to \"%s\"", w.Len(), out)
	if err := w.Write(out); err != nil {
		return "", err
	}

	return out, nil
}
