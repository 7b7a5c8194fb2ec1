package mipmap

import (
	"fmt"
	"io"
	"os"

	exr "github.com/mrjoshuak/go-openexr"
)

// TileSize is the width and height of every tile written.
const TileSize = 64

// Writer writes a mip chain as a single tiled OpenEXR file with one mip
// level per buffer. It only reads the buffers it is given.
type Writer struct {
	levels []*PixelBuffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// AddLevel appends the next level of the chain. It fails without adding
// anything once MaxLevels levels are held.
func (w *Writer) AddLevel(b *PixelBuffer) error {
	if len(w.levels) >= MaxLevels {
		e := newError(TooManyLevels)
		e.Expected, e.Actual = MaxLevels, len(w.levels)+1
		return e
	}
	w.levels = append(w.levels, b)
	return nil
}

// Len returns the number of levels added.
func (w *Writer) Len() int {
	return len(w.levels)
}

// Write creates the named file and writes the chain to it. A partially
// written file is left in place on failure.
func (w *Writer) Write(name string) error {
	if err := w.check(); err != nil {
		return err
	}

	f, err := os.Create(name)
	if err != nil {
		return ioError(err)
	}

	err = w.encode(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = ioError(cerr)
	}
	return err
}

// Encode writes the chain to ws.
func (w *Writer) Encode(ws io.WriteSeeker) error {
	if err := w.check(); err != nil {
		return err
	}
	return w.encode(ws)
}

func (w *Writer) check() error {
	if len(w.levels) < MinLevels {
		e := newError(TooFewLevels)
		e.Expected, e.Actual = MinLevels, len(w.levels)
		return e
	}
	for i, b := range w.levels {
		if !b.Loaded() {
			return fmt.Errorf("mipmap: level %d: %w", i, ErrNotLoaded)
		}
	}
	return nil
}

func (w *Writer) header() *exr.Header {
	base := w.levels[0]
	h := exr.NewTiledHeader(base.Width(), base.Height(), TileSize, TileSize)
	h.SetLineOrder(base.LineOrder().exrLineOrder())
	h.SetCompression(exr.CompressionZIP)
	h.Set(&exr.Attribute{Name: exr.AttrNameType, Type: exr.AttrTypeString, Value: "tiledimage"})
	h.SetTileDescription(exr.TileDescription{
		XSize:        TileSize,
		YSize:        TileSize,
		Mode:         exr.LevelModeMipmap,
		RoundingMode: exr.LevelRoundDown,
	})

	cl := exr.NewChannelList()
	for _, name := range channelNames {
		cl.Add(exr.NewChannel(name, base.Encoding().pixelType()))
	}
	h.SetChannels(cl)
	return h
}

func (w *Writer) encode(ws io.WriteSeeker) error {
	out, err := exr.NewTiledWriter(ws, w.header())
	if err != nil {
		return ioError(err)
	}

	for level, b := range w.levels {
		if level >= out.NumLevels() || b.Width() != out.LevelWidth(level) || b.Height() != out.LevelHeight(level) {
			return ioError(fmt.Errorf("level %d is %dx%d, which does not fit the pyramid", level, b.Width(), b.Height()))
		}

		out.SetFrameBuffer(b.scatter())
		for ty := 0; ty < out.NumYTilesAtLevel(level); ty++ {
			for tx := 0; tx < out.NumXTilesAtLevel(level); tx++ {
				if err := out.WriteTileLevel(tx, ty, level, level); err != nil {
					return ioError(fmt.Errorf("level %d tile (%d, %d): %w", level, tx, ty, err))
				}
			}
		}
	}

	if err := out.Close(); err != nil {
		return ioError(err)
	}
	return nil
}
