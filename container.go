package mipmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	exr "github.com/mrjoshuak/go-openexr"
	"github.com/mrjoshuak/go-openexr/half"
)

// MaxPixels bounds the size of a single level. Headers declaring more are
// rejected before any storage is allocated.
const MaxPixels = 1 << 26

var (
	errTooLarge      = errors.New("declared image is too large")
	errOrigin        = errors.New("data window starts at negative coordinates")
	errLevelMissing  = errors.New("level has not been written")
	errLevelRange    = errors.New("level out of range")
	errNotTiledLevel = errors.New("scan line files only have level 0")
)

// openContainer reads the whole of r and parses it as a single-part file.
func openContainer(r io.Reader) (*exr.File, *exr.Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	f, err := exr.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	h := f.Header(0)
	if h == nil {
		return nil, nil, errors.New("missing header")
	}
	return f, h, nil
}

func checkPixels(w, h int) error {
	if w <= 0 || h <= 0 || w > MaxPixels/h {
		return fmt.Errorf("%w: %dx%d", errTooLarge, w, h)
	}
	return nil
}

// chunkIndex returns the offset table index of the first tile of a mip
// level. Tiles are stored level by level, row-major within a level.
func chunkIndex(h *exr.Header, level int) int {
	i := 0
	for l := 0; l < level; l++ {
		i += h.NumXTiles(l) * h.NumYTiles(l)
	}
	return i
}

// LevelPresent reports whether every tile of the given level of a tiled
// file has been written. Scan line files only have level 0.
func LevelPresent(f *exr.File, level int) bool {
	h := f.Header(0)
	if h == nil || level < 0 {
		return false
	}
	offsets := f.OffsetsRef(0)
	start, end := 0, len(offsets)
	if h.IsTiled() {
		if level >= h.NumXLevels() {
			return false
		}
		start = chunkIndex(h, level)
		end = start + h.NumXTiles(level)*h.NumYTiles(level)
	} else if level != 0 {
		return false
	}
	if end > len(offsets) {
		return false
	}
	for _, o := range offsets[start:end] {
		if o <= 0 {
			return false
		}
	}
	return true
}

// newFrameBuffer allocates one w by h slice per color channel.
func newFrameBuffer(t exr.PixelType, w, h int) *exr.FrameBuffer {
	fb := exr.NewFrameBuffer()
	for _, name := range channelNames {
		fb.Insert(name, exr.NewSlice(t, w, h))
	}
	return fb
}

// gather copies the w by h block at (ox, oy) of fb into the interleaved
// storage.
func (b *PixelBuffer) gather(fb *exr.FrameBuffer, ox, oy int) {
	for c, name := range channelNames {
		s := fb.Get(name)
		for y := 0; y < b.height; y++ {
			p := b.pix[y*b.rowStride+b.offsets[c]:]
			for x := 0; x < b.width; x++ {
				q := p[x*b.pixelStride:]
				switch b.encoding {
				case Uint:
					binary.LittleEndian.PutUint32(q, s.GetUint32(ox+x, oy+y))
				case Half:
					binary.LittleEndian.PutUint16(q, s.GetHalf(ox+x, oy+y).Bits())
				case Float:
					binary.LittleEndian.PutUint32(q, math.Float32bits(s.GetFloat32(ox+x, oy+y)))
				}
			}
		}
	}
}

// scatter returns a frame buffer holding a copy of the storage.
func (b *PixelBuffer) scatter() *exr.FrameBuffer {
	fb := newFrameBuffer(b.encoding.pixelType(), b.width, b.height)
	for c, name := range channelNames {
		s := fb.Get(name)
		for y := 0; y < b.height; y++ {
			p := b.pix[y*b.rowStride+b.offsets[c]:]
			for x := 0; x < b.width; x++ {
				q := p[x*b.pixelStride:]
				switch b.encoding {
				case Uint:
					s.SetUint32(x, y, binary.LittleEndian.Uint32(q))
				case Half:
					s.SetHalf(x, y, half.FromBits(binary.LittleEndian.Uint16(q)))
				case Float:
					s.SetFloat32(x, y, math.Float32frombits(binary.LittleEndian.Uint32(q)))
				}
			}
		}
	}
	return fb
}

// readLevel decodes one level of f into a new buffer.
func readLevel(f *exr.File, h *exr.Header, level int, enc PixelEncoding, order LineOrder) (*PixelBuffer, error) {
	if !h.IsTiled() {
		if level != 0 {
			return nil, errNotTiledLevel
		}
		return readScanLines(f, h, enc, order)
	}

	tr, err := exr.NewTiledReader(f)
	if err != nil {
		return nil, err
	}
	if level < 0 || level >= tr.NumLevels() {
		return nil, fmt.Errorf("%w: %d, file has %d", errLevelRange, level, tr.NumLevels())
	}
	w, ht := tr.LevelWidth(level), tr.LevelHeight(level)
	if err := checkPixels(w, ht); err != nil {
		return nil, err
	}
	if !LevelPresent(f, level) {
		return nil, fmt.Errorf("%w: %d", errLevelMissing, level)
	}

	fb := newFrameBuffer(enc.pixelType(), w, ht)
	tr.SetFrameBuffer(fb)
	for ty := 0; ty < tr.NumYTilesAtLevel(level); ty++ {
		for tx := 0; tx < tr.NumXTilesAtLevel(level); tx++ {
			if err := tr.ReadTileLevel(tx, ty, level, level); err != nil {
				return nil, fmt.Errorf("tile (%d, %d) of level %d: %w", tx, ty, level, err)
			}
		}
	}

	b := newBuffer(w, ht, enc, order)
	b.gather(fb, 0, 0)
	return b, nil
}

// readScanLines decodes the data window of a scan line file. The reader
// addresses slices by absolute coordinates, so the slices span the window
// from the origin.
func readScanLines(f *exr.File, h *exr.Header, enc PixelEncoding, order LineOrder) (*PixelBuffer, error) {
	dw := h.DataWindow()
	if dw.Min.X < 0 || dw.Min.Y < 0 {
		return nil, errOrigin
	}
	w, ht := int(dw.Width()), int(dw.Height())
	if err := checkPixels(w, ht); err != nil {
		return nil, err
	}
	sw, sh := int(dw.Max.X)+1, int(dw.Max.Y)+1
	if err := checkPixels(sw, sh); err != nil {
		return nil, err
	}

	sr, err := exr.NewScanlineReader(f)
	if err != nil {
		return nil, err
	}
	fb := newFrameBuffer(enc.pixelType(), sw, sh)
	sr.SetFrameBuffer(fb)
	if err := sr.ReadPixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
		return nil, err
	}

	b := newBuffer(w, ht, enc, order)
	b.gather(fb, int(dw.Min.X), int(dw.Min.Y))
	return b, nil
}
