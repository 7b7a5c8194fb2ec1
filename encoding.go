package mipmap

import (
	"fmt"

	exr "github.com/mrjoshuak/go-openexr"
)

// PixelEncoding is the numeric representation of each color component.
type PixelEncoding int

// Supported encodings. UnknownEncoding is reported by buffers that are not
// loaded.
const (
	UnknownEncoding PixelEncoding = iota
	Uint
	Half
	Float
)

// Size returns the number of bytes of one component.
func (e PixelEncoding) Size() int {
	switch e {
	case Uint, Float:
		return 4
	case Half:
		return 2
	}
	return 0
}

func (e PixelEncoding) String() string {
	switch e {
	case Uint:
		return "UINT"
	case Half:
		return "HALF"
	case Float:
		return "FLOAT"
	}
	return "unknown"
}

func pixelTypeName(t exr.PixelType) string {
	if e := encodingOf(t); e != UnknownEncoding {
		return e.String()
	}
	return fmt.Sprintf("type(%d)", int(t))
}

func (e PixelEncoding) pixelType() exr.PixelType {
	switch e {
	case Uint:
		return exr.PixelTypeUint
	case Half:
		return exr.PixelTypeHalf
	case Float:
		return exr.PixelTypeFloat
	}
	return exr.PixelType(99)
}

func encodingOf(t exr.PixelType) PixelEncoding {
	switch t {
	case exr.PixelTypeUint:
		return Uint
	case exr.PixelTypeHalf:
		return Half
	case exr.PixelTypeFloat:
		return Float
	}
	return UnknownEncoding
}

// LineOrder is the declared vertical direction in which scan lines are
// stored.
type LineOrder int

// Line orders. UnknownLineOrder is reported by buffers that are not loaded.
const (
	UnknownLineOrder LineOrder = iota
	Increasing
	Decreasing
)

func (o LineOrder) String() string {
	switch o {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	}
	return "unknown"
}

func (o LineOrder) flip() LineOrder {
	switch o {
	case Increasing:
		return Decreasing
	case Decreasing:
		return Increasing
	}
	return o
}

func (o LineOrder) exrLineOrder() exr.LineOrder {
	if o == Decreasing {
		return exr.LineOrderDecreasing
	}
	return exr.LineOrderIncreasing
}

func lineOrderOf(o exr.LineOrder) LineOrder {
	switch o {
	case exr.LineOrderIncreasing:
		return Increasing
	case exr.LineOrderDecreasing:
		return Decreasing
	}
	return UnknownLineOrder
}
