package mipmap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	exr "github.com/mrjoshuak/go-openexr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPixels(t *testing.T) {
	tests := []struct {
		w, h int
		ok   bool
	}{
		{1, 1, true},
		{8192, 8192, true},
		{MaxPixels, 1, true},
		{8193, 8192, false},
		{1 << 20, 1 << 20, false},
		{0, 16, false},
		{16, -1, false},
	}
	for _, tc := range tests {
		err := checkPixels(tc.w, tc.h)
		if tc.ok {
			assert.NoError(t, err, "%dx%d", tc.w, tc.h)
		} else {
			assert.True(t, errors.Is(err, errTooLarge), "%dx%d", tc.w, tc.h)
		}
	}
}

// emptyFile writes a header and offset table without any pixel data.
func emptyFile(t *testing.T, h *exr.Header) []byte {
	t.Helper()
	name := filepath.Join(t.TempDir(), "empty.exr")
	f, err := os.Create(name)
	require.NoError(t, err)

	if h.IsTiled() {
		out, err := exr.NewTiledWriter(f, h)
		require.NoError(t, err)
		_ = out.Close()
	} else {
		out, err := exr.NewScanlineWriter(f, h)
		require.NoError(t, err)
		_ = out.Close()
	}
	require.NoError(t, f.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return data
}

func TestDecodeOversizedHeader(t *testing.T) {
	rgb := map[string]exr.PixelType{"R": exr.PixelTypeFloat, "G": exr.PixelTypeFloat, "B": exr.PixelTypeFloat}

	t.Run("scan line", func(t *testing.T) {
		data := emptyFile(t, channelHeader(60000, 60000, exr.LineOrderIncreasing, rgb))

		b := filled(4, 4, Float, Increasing, 0)
		err := b.Decode(bytes.NewReader(data))
		assert.Equal(t, ContainerIOError, KindOf(err))
		assert.True(t, errors.Is(err, errTooLarge))
		assertUnloaded(t, b)
	})

	t.Run("tiled", func(t *testing.T) {
		h := exr.NewTiledHeader(65536, 65536, 4096, 4096)
		data := emptyFile(t, h)

		var b PixelBuffer
		err := b.Decode(bytes.NewReader(data))
		assert.Equal(t, ContainerIOError, KindOf(err))
		assertUnloaded(t, &b)
	})
}

func TestLevelPresentScanLine(t *testing.T) {
	name := filepath.Join(t.TempDir(), "level.exr")
	writeBuffer(t, name, filled(16, 8, Uint, Increasing, 0))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	f, err := exr.OpenReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.True(t, LevelPresent(f, 0))
	assert.False(t, LevelPresent(f, 1))
	assert.False(t, LevelPresent(f, -1))

	var b PixelBuffer
	assert.Equal(t, ContainerIOError, KindOf(b.DecodeLevel(bytes.NewReader(data), 1)))
}

func TestScatterGather(t *testing.T) {
	for _, enc := range encodings {
		src := filled(9, 5, enc, Decreasing, 4)
		dst := newBuffer(9, 5, enc, Decreasing)
		dst.gather(src.scatter(), 0, 0)
		assert.Equal(t, src.Pix(), dst.Pix(), enc.String())
	}
}
