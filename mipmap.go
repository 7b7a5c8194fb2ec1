/*
Package mipmap packs a sequence of OpenEXR images, each half the size of the
one before, into a single tiled OpenEXR file holding them as an explicit mip
map pyramid.

Each input level is read into a PixelBuffer, the chain is checked with
Validate, and a Writer stores it with 64 by 64 tiles, one mip level per input
image. Packer ties these together for a filename pattern such as mip#.exr.
*/
package mipmap

import (
	"io"
	"log"
)

const (
	// DefaultPlaceholder marks where the level index goes in a filename
	// pattern.
	DefaultPlaceholder = '#'

	// DefaultMarker replaces the placeholder in the output filename.
	DefaultMarker = 'm'
)

// Packer loads, validates and writes mip chains named by a filename pattern.
type Packer struct {
	logger      *log.Logger
	placeholder rune
	marker      rune
}

// Option configures a Packer.
type Option func(*Packer)

// WithPlaceholder sets the placeholder character of filename patterns.
func WithPlaceholder(r rune) Option {
	return func(p *Packer) {
		p.placeholder = r
	}
}

// WithMarker sets the character that replaces the placeholder in the output
// filename.
func WithMarker(r rune) Option {
	return func(p *Packer) {
		p.marker = r
	}
}

// New returns a Packer logging to logger, which may be nil.
func New(logger *log.Logger, opts ...Option) *Packer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &Packer{
		logger:      logger,
		placeholder: DefaultPlaceholder,
		marker:      DefaultMarker,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}
