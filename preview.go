package mipmap

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

const gifColors = 256

// toSRGB converts a linear component in [0, 1] to an 8-bit sRGB value.
func toSRGB(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return 0xff
	case v <= 0.0031308:
		v *= 12.92
	default:
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(v*0xff + 0.5)
}

// Image renders the buffer as an 8-bit sRGB image. Float components are
// clamped to [0, 1]; unsigned integer components are scaled by the largest
// component in the buffer. Rows are rendered in storage order.
func (b *PixelBuffer) Image() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	if !b.Loaded() {
		return m
	}

	scale := 1.0
	if b.encoding == Uint {
		var peak float64
		for y := 0; y < b.height; y++ {
			for x := 0; x < b.width; x++ {
				for _, v := range b.At(x, y) {
					peak = math.Max(peak, v)
				}
			}
		}
		if peak > 0 {
			scale = 1 / peak
		}
	}

	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			v := b.At(x, y)
			i := m.PixOffset(x, y)
			m.Pix[i+0] = toSRGB(v[0] * scale)
			m.Pix[i+1] = toSRGB(v[1] * scale)
			m.Pix[i+2] = toSRGB(v[2] * scale)
			m.Pix[i+3] = 0xff
		}
	}
	return m
}

// fit returns the size of a w by h image scaled down so neither side exceeds
// limit, keeping the aspect ratio.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, int(math.Max(1, float64(h*limit/w)))
	}
	return int(math.Max(1, float64(w*limit/h))), limit
}

// WritePreview writes an 8-bit rendition of b to w as "png" or "gif". If
// maxSize is positive the image is scaled down so neither side exceeds it.
func WritePreview(w io.Writer, b *PixelBuffer, format string, maxSize int) error {
	if !b.Loaded() {
		return ErrNotLoaded
	}

	src := b.Image()
	var m image.Image = src
	if dw, dh := fit(b.width, b.height, maxSize); dw != b.width || dh != b.height {
		dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		m = dst
	}

	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, m)
	case "gif":
		q := quantize.MedianCutQuantizer{}
		pm := image.NewPaletted(m.Bounds(), q.Quantize(make(color.Palette, 0, gifColors), m))
		draw.FloydSteinberg.Draw(pm, pm.Bounds(), m, image.Point{})
		return gif.Encode(w, pm, nil)
	}
	return fmt.Errorf("mipmap: unsupported preview format %q", format)
}
