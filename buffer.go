package mipmap

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	exr "github.com/mrjoshuak/go-openexr"
	"github.com/x448/float16"
)

var channelNames = [3]string{"R", "G", "B"}

// PixelBuffer holds one resolution level in memory as interleaved R, G, B
// components of a single encoding. Components are little-endian.
//
// The zero value is an unloaded buffer; all accessors return zero or the
// unknown markers until a load succeeds.
type PixelBuffer struct {
	width, height int
	encoding      PixelEncoding
	order         LineOrder

	pix         []byte
	pixelStride int
	rowStride   int
	offsets     [3]int
}

func newBuffer(width, height int, enc PixelEncoding, order LineOrder) *PixelBuffer {
	size := enc.Size()
	b := &PixelBuffer{
		width:       width,
		height:      height,
		encoding:    enc,
		order:       order,
		pixelStride: 3 * size,
		rowStride:   3 * size * width,
		offsets:     [3]int{0, size, 2 * size},
	}
	b.pix = make([]byte, height*b.rowStride)
	return b
}

func (b *PixelBuffer) reset() {
	*b = PixelBuffer{}
}

// Load reads level 0 of the named file. On failure the buffer is left
// unloaded.
func (b *PixelBuffer) Load(name string) error {
	b.reset()

	f, err := os.Open(name)
	if err != nil {
		return ioError(err)
	}
	defer f.Close()

	return b.DecodeLevel(f, 0)
}

// Decode reads level 0 of the file read from r.
func (b *PixelBuffer) Decode(r io.Reader) error {
	return b.DecodeLevel(r, 0)
}

// DecodeLevel reads the given mip level of the file read from r. Scan line
// files only have level 0. On failure the buffer is left unloaded.
func (b *PixelBuffer) DecodeLevel(r io.Reader, level int) error {
	b.reset()

	f, h, err := openContainer(r)
	if err != nil {
		return ioError(err)
	}

	enc, err := channelEncoding(h.Channels())
	if err != nil {
		return err
	}
	order := lineOrderOf(h.LineOrder())
	if order == UnknownLineOrder {
		e := newError(UnsupportedLineOrder)
		e.Detail = fmt.Sprintf("line order %d", int(h.LineOrder()))
		return e
	}

	nb, err := readLevel(f, h, level, enc, order)
	if err != nil {
		return ioError(err)
	}

	*b = *nb
	return nil
}

func channelEncoding(l *exr.ChannelList) (PixelEncoding, error) {
	var (
		names []string
		types = map[string]exr.PixelType{}
	)
	if l != nil {
		for i := 0; i < l.Len(); i++ {
			c := l.At(i)
			names = append(names, c.Name)
			types[c.Name] = c.Type
		}
	}

	r, okR := types["R"]
	g, okG := types["G"]
	bl, okB := types["B"]
	if len(names) != 3 || !okR || !okG || !okB {
		e := newError(UnsupportedChannelSet)
		e.Detail = fmt.Sprintf("have [%s], need exactly R, G, B", strings.Join(names, ", "))
		return UnknownEncoding, e
	}
	if r != g || r != bl {
		e := newError(MismatchedChannelEncoding)
		e.Detail = fmt.Sprintf("R is %s, G is %s, B is %s", pixelTypeName(r), pixelTypeName(g), pixelTypeName(bl))
		return UnknownEncoding, e
	}
	enc := encodingOf(r)
	if enc == UnknownEncoding {
		e := newError(UnsupportedPixelEncoding)
		e.Detail = fmt.Sprintf("pixel type %d", int(r))
		return UnknownEncoding, e
	}
	return enc, nil
}

// FlipRows reverses the order of the rows in place and toggles the line
// order. Calling it twice restores the buffer.
func (b *PixelBuffer) FlipRows() error {
	if !b.Loaded() {
		return ErrNotLoaded
	}

	tmp := make([]byte, b.rowStride)
	for top, bottom := 0, b.height-1; top < bottom; top, bottom = top+1, bottom-1 {
		r1 := b.pix[top*b.rowStride : (top+1)*b.rowStride]
		r2 := b.pix[bottom*b.rowStride : (bottom+1)*b.rowStride]
		copy(tmp, r1)
		copy(r1, r2)
		copy(r2, tmp)
	}
	b.order = b.order.flip()
	return nil
}

// Loaded reports whether the buffer holds pixel data.
func (b *PixelBuffer) Loaded() bool {
	return b.pix != nil
}

// Width returns the width in pixels.
func (b *PixelBuffer) Width() int {
	return b.width
}

// Height returns the height in pixels.
func (b *PixelBuffer) Height() int {
	return b.height
}

// Encoding returns the component encoding.
func (b *PixelBuffer) Encoding() PixelEncoding {
	return b.encoding
}

// LineOrder returns the line order the rows are currently stored in.
func (b *PixelBuffer) LineOrder() LineOrder {
	return b.order
}

// ChannelOffset returns the byte offset of channel c (0 for R, 1 for G, 2
// for B) within a pixel.
func (b *PixelBuffer) ChannelOffset(c int) int {
	if c < 0 || c >= len(b.offsets) {
		return 0
	}
	return b.offsets[c]
}

// RowStride returns the number of bytes between vertically adjacent pixels.
func (b *PixelBuffer) RowStride() int {
	return b.rowStride
}

// PixelStride returns the number of bytes between horizontally adjacent
// pixels.
func (b *PixelBuffer) PixelStride() int {
	return b.pixelStride
}

// Pix returns the underlying storage. The slice is owned by the buffer.
func (b *PixelBuffer) Pix() []byte {
	return b.pix
}

// At returns the components of the pixel at (x, y) as float64 values.
func (b *PixelBuffer) At(x, y int) [3]float64 {
	var v [3]float64
	if !b.Loaded() || x < 0 || y < 0 || x >= b.width || y >= b.height {
		return v
	}
	p := b.pix[y*b.rowStride+x*b.pixelStride:]
	for c := range v {
		s := p[b.offsets[c]:]
		switch b.encoding {
		case Uint:
			v[c] = float64(binary.LittleEndian.Uint32(s))
		case Half:
			v[c] = float64(float16.Frombits(binary.LittleEndian.Uint16(s)).Float32())
		case Float:
			v[c] = float64(math.Float32frombits(binary.LittleEndian.Uint32(s)))
		}
	}
	return v
}
