package mipmap

import "fmt"

const (
	// MinLevels is the smallest number of levels in a mip chain.
	MinLevels = 2
	// MaxLevels is the largest number of levels in a mip chain.
	MaxLevels = 10
)

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate checks that levels form a mip chain: between MinLevels and
// MaxLevels levels, a base level with power of two dimensions, every
// following level exactly half the size of its predecessor (rounding down)
// and one pixel encoding throughout. The first violation found is returned as
// an *Error.
func Validate(levels []*PixelBuffer) error {
	switch {
	case len(levels) < MinLevels:
		e := newError(TooFewLevels)
		e.Expected, e.Actual = MinLevels, len(levels)
		return e
	case len(levels) > MaxLevels:
		e := newError(TooManyLevels)
		e.Expected, e.Actual = MaxLevels, len(levels)
		return e
	}

	base := levels[0]
	for _, d := range []struct {
		name string
		size int
	}{
		{"width", base.Width()},
		{"height", base.Height()},
	} {
		if !isPowerOfTwo(d.size) {
			e := newError(DimensionNotPowerOfTwo)
			e.Index, e.Dimension, e.Actual = 0, d.name, d.size
			return e
		}
	}

	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1], levels[i]
		if w := prev.Width() / 2; cur.Width() != w {
			e := newError(DimensionMismatch)
			e.Index, e.Dimension, e.Expected, e.Actual = i, "width", w, cur.Width()
			return e
		}
		if h := prev.Height() / 2; cur.Height() != h {
			e := newError(DimensionMismatch)
			e.Index, e.Dimension, e.Expected, e.Actual = i, "height", h, cur.Height()
			return e
		}
	}

	for i := 1; i < len(levels); i++ {
		if enc := levels[i].Encoding(); enc != base.Encoding() {
			e := newError(MismatchedChannelEncoding)
			e.Index = i
			e.Detail = fmt.Sprintf("pixel type %s, level 0 has %s", enc, base.Encoding())
			return e
		}
	}

	return nil
}
