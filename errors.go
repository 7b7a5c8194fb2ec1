package mipmap

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the failures reported by this package.
type Kind int

// Failure kinds.
const (
	UnsupportedChannelSet Kind = iota + 1
	MismatchedChannelEncoding
	UnsupportedLineOrder
	UnsupportedPixelEncoding
	DimensionNotPowerOfTwo
	DimensionMismatch
	TooFewLevels
	TooManyLevels
	ContainerIOError
)

var kindNames = map[Kind]string{
	UnsupportedChannelSet:     "unsupported channel set",
	MismatchedChannelEncoding: "mismatched channel encoding",
	UnsupportedLineOrder:      "unsupported line order",
	UnsupportedPixelEncoding:  "unsupported pixel encoding",
	DimensionNotPowerOfTwo:    "dimension not a power of two",
	DimensionMismatch:         "dimension mismatch",
	TooFewLevels:              "too few levels",
	TooManyLevels:             "too many levels",
	ContainerIOError:          "container I/O error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error describes a failure to load, validate or write a mip chain.
type Error struct {
	Kind Kind

	// Index is the offending level, or -1 when no single level is at
	// fault.
	Index int

	// Dimension is "width" or "height" for the dimension kinds.
	Dimension string

	// Expected and Actual hold the level counts or sizes involved.
	Expected int
	Actual   int

	Detail string
	Err    error
}

func newError(k Kind) *Error {
	return &Error{Kind: k, Index: -1}
}

func ioError(err error) *Error {
	e := newError(ContainerIOError)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("mipmap: ")
	if e.Index >= 0 {
		fmt.Fprintf(&b, "level %d: ", e.Index)
	}
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case DimensionNotPowerOfTwo:
		fmt.Fprintf(&b, ": %s is %d", e.Dimension, e.Actual)
	case DimensionMismatch:
		fmt.Fprintf(&b, ": %s is %d, must be %d", e.Dimension, e.Actual, e.Expected)
	case TooFewLevels:
		fmt.Fprintf(&b, ": got %d, need at least %d", e.Actual, e.Expected)
	case TooManyLevels:
		fmt.Fprintf(&b, ": got %d, at most %d allowed", e.Actual, e.Expected)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, ErrTooFewLevels) matches any TooFewLevels failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrUnsupportedChannelSet     = newError(UnsupportedChannelSet)
	ErrMismatchedChannelEncoding = newError(MismatchedChannelEncoding)
	ErrUnsupportedLineOrder      = newError(UnsupportedLineOrder)
	ErrUnsupportedPixelEncoding  = newError(UnsupportedPixelEncoding)
	ErrDimensionNotPowerOfTwo    = newError(DimensionNotPowerOfTwo)
	ErrDimensionMismatch         = newError(DimensionMismatch)
	ErrTooFewLevels              = newError(TooFewLevels)
	ErrTooManyLevels             = newError(TooManyLevels)
	ErrContainerIO               = newError(ContainerIOError)
)

var (
	// ErrNotLoaded is returned by operations that need pixel data from a
	// buffer that holds none.
	ErrNotLoaded = errors.New("mipmap: pixel buffer not loaded")

	// ErrPattern is returned for a filename pattern without exactly one
	// placeholder.
	ErrPattern = errors.New("mipmap: invalid filename pattern")
)

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
