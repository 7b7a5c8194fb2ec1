package mipmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	exr "github.com/mrjoshuak/go-openexr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

var encodings = []PixelEncoding{Uint, Half, Float}

func setComponent(b *PixelBuffer, x, y, c int, v float64) {
	p := b.pix[y*b.rowStride+x*b.pixelStride+b.offsets[c]:]
	switch b.encoding {
	case Uint:
		binary.LittleEndian.PutUint32(p, uint32(v))
	case Half:
		binary.LittleEndian.PutUint16(p, float16.Fromfloat32(float32(v)).Bits())
	case Float:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	}
}

// filled returns a loaded buffer whose components are small integers, which
// every encoding represents exactly.
func filled(w, h int, enc PixelEncoding, order LineOrder, seed int) *PixelBuffer {
	b := newBuffer(w, h, enc, order)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				setComponent(b, x, y, c, float64((seed*7+(y*w+x)*3+c)%1000))
			}
		}
	}
	return b
}

func channelHeader(w, h int, order exr.LineOrder, channels map[string]exr.PixelType) *exr.Header {
	hdr := exr.NewHeader()
	dw := exr.Box2i{Min: exr.V2i{X: 0, Y: 0}, Max: exr.V2i{X: int32(w - 1), Y: int32(h - 1)}}
	hdr.SetDataWindow(dw)
	hdr.SetDisplayWindow(dw)
	hdr.SetCompression(exr.CompressionZIP)
	hdr.SetLineOrder(order)
	hdr.SetPixelAspectRatio(1)
	hdr.SetScreenWindowCenter(exr.V2f{X: 0, Y: 0})
	hdr.SetScreenWindowWidth(1)

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)
	cl := exr.NewChannelList()
	for _, name := range names {
		cl.Add(exr.NewChannel(name, channels[name]))
	}
	hdr.SetChannels(cl)
	return hdr
}

func writeHeader(t *testing.T, name string, h *exr.Header, fb *exr.FrameBuffer) {
	t.Helper()
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()

	out, err := exr.NewScanlineWriter(f, h)
	require.NoError(t, err)
	out.SetFrameBuffer(fb)
	dw := h.DataWindow()
	require.NoError(t, out.WritePixels(int(dw.Min.Y), int(dw.Max.Y)))
	require.NoError(t, out.Close())
}

// writeBuffer stores b as a scan line file with its line order.
func writeBuffer(t *testing.T, name string, b *PixelBuffer) {
	t.Helper()
	pt := b.Encoding().pixelType()
	h := channelHeader(b.Width(), b.Height(), b.LineOrder().exrLineOrder(), map[string]exr.PixelType{"R": pt, "G": pt, "B": pt})
	writeHeader(t, name, h, b.scatter())
}

func assertUnloaded(t *testing.T, b *PixelBuffer) {
	t.Helper()
	assert.False(t, b.Loaded())
	assert.Equal(t, 0, b.Width())
	assert.Equal(t, 0, b.Height())
	assert.Equal(t, UnknownEncoding, b.Encoding())
	assert.Equal(t, UnknownLineOrder, b.LineOrder())
	assert.Equal(t, 0, b.RowStride())
	assert.Equal(t, 0, b.PixelStride())
	assert.Equal(t, 0, b.ChannelOffset(1))
	assert.Nil(t, b.Pix())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for _, enc := range encodings {
		for _, order := range []LineOrder{Increasing, Decreasing} {
			t.Run(enc.String()+"/"+order.String(), func(t *testing.T) {
				src := filled(37, 19, enc, order, 3)
				name := filepath.Join(dir, enc.String()+order.String()+".exr")
				writeBuffer(t, name, src)

				var b PixelBuffer
				require.NoError(t, b.Load(name))
				assert.True(t, b.Loaded())
				assert.Equal(t, 37, b.Width())
				assert.Equal(t, 19, b.Height())
				assert.Equal(t, enc, b.Encoding())
				assert.Equal(t, order, b.LineOrder())

				size := enc.Size()
				assert.Equal(t, 3*size, b.PixelStride())
				assert.Equal(t, 37*3*size, b.RowStride())
				for c := 0; c < 3; c++ {
					assert.Equal(t, c*size, b.ChannelOffset(c))
				}
				assert.Len(t, b.Pix(), 19*37*3*size)
				assert.Equal(t, src.Pix(), b.Pix())
				assert.Equal(t, [3]float64{135, 136, 137}, b.At(1, 1))
			})
		}
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		order    exr.LineOrder
		channels map[string]exr.PixelType
		kind     Kind
	}{
		{
			name:     "alpha",
			channels: map[string]exr.PixelType{"R": exr.PixelTypeHalf, "G": exr.PixelTypeHalf, "B": exr.PixelTypeHalf, "A": exr.PixelTypeHalf},
			kind:     UnsupportedChannelSet,
		},
		{
			name:     "luminance",
			channels: map[string]exr.PixelType{"Y": exr.PixelTypeFloat},
			kind:     UnsupportedChannelSet,
		},
		{
			name:     "wrong names",
			channels: map[string]exr.PixelType{"R": exr.PixelTypeFloat, "G": exr.PixelTypeFloat, "Z": exr.PixelTypeFloat},
			kind:     UnsupportedChannelSet,
		},
		{
			name:     "mixed types",
			channels: map[string]exr.PixelType{"R": exr.PixelTypeFloat, "G": exr.PixelTypeHalf, "B": exr.PixelTypeFloat},
			kind:     MismatchedChannelEncoding,
		},
		{
			name:     "random line order",
			order:    exr.LineOrder(2),
			channels: map[string]exr.PixelType{"R": exr.PixelTypeFloat, "G": exr.PixelTypeFloat, "B": exr.PixelTypeFloat},
			kind:     UnsupportedLineOrder,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			name := filepath.Join(dir, tc.name+".exr")
			writeHeader(t, name, channelHeader(8, 8, tc.order, tc.channels), exr.NewFrameBuffer())

			b := filled(4, 4, Float, Increasing, 0)
			err := b.Load(name)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assertUnloaded(t, b)
		})
	}
}

func TestLoadUnsupportedPixelEncoding(t *testing.T) {
	l := exr.NewChannelList()
	for _, name := range channelNames {
		l.Add(exr.NewChannel(name, exr.PixelType(7)))
	}
	_, err := channelEncoding(l)
	assert.True(t, errors.Is(err, ErrUnsupportedPixelEncoding))
}

func TestLoadMissingFile(t *testing.T) {
	b := filled(4, 4, Half, Decreasing, 0)
	err := b.Load(filepath.Join(t.TempDir(), "missing.exr"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContainerIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assertUnloaded(t, b)
}

func TestLoadCorrupt(t *testing.T) {
	name := filepath.Join(t.TempDir(), "level.exr")
	writeBuffer(t, name, filled(16, 16, Float, Increasing, 1))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(name, data[:len(data)-10], 0o644))

	var b PixelBuffer
	err = b.Load(name)
	assert.Equal(t, ContainerIOError, KindOf(err))
	assertUnloaded(t, &b)

	err = b.Decode(bytes.NewReader([]byte("not an image")))
	assert.Equal(t, ContainerIOError, KindOf(err))
	assertUnloaded(t, &b)
}

func TestFlipRows(t *testing.T) {
	for _, enc := range encodings {
		t.Run(enc.String(), func(t *testing.T) {
			b := filled(5, 7, enc, Increasing, 2)
			orig := append([]byte(nil), b.Pix()...)
			top, bottom, middle := b.At(3, 0), b.At(3, 6), b.At(3, 3)

			require.NoError(t, b.FlipRows())
			assert.Equal(t, Decreasing, b.LineOrder())
			assert.Equal(t, top, b.At(3, 6))
			assert.Equal(t, bottom, b.At(3, 0))
			assert.Equal(t, middle, b.At(3, 3))
			assert.NotEqual(t, orig, b.Pix())

			require.NoError(t, b.FlipRows())
			assert.Equal(t, Increasing, b.LineOrder())
			assert.Equal(t, orig, b.Pix())
		})
	}
}

func TestFlipRowsNotLoaded(t *testing.T) {
	var b PixelBuffer
	assert.Equal(t, ErrNotLoaded, b.FlipRows())
	assertUnloaded(t, &b)
}

func TestAccessorsUnloaded(t *testing.T) {
	var b PixelBuffer
	assertUnloaded(t, &b)
	assert.Equal(t, [3]float64{}, b.At(0, 0))
	assert.Equal(t, "unknown", b.Encoding().String())
}

func TestAtOutOfRange(t *testing.T) {
	b := filled(2, 2, Uint, Increasing, 0)
	assert.Equal(t, [3]float64{}, b.At(2, 0))
	assert.Equal(t, [3]float64{}, b.At(0, -1))
	assert.Equal(t, 0, b.ChannelOffset(3))
}
