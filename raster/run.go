package raster

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinBitDepth is the smallest supported bit depth (2 colours).
	MinBitDepth = 1
	// MaxBitDepth is the largest supported bit depth (128 colours).
	MaxBitDepth = 7
)

var (
	// ErrUnsupportedBitDepth reports a bit depth outside [MinBitDepth, MaxBitDepth].
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrInvalidRun reports a run that cannot be encoded at the codec's bit depth.
	ErrInvalidRun = errors.New("invalid raster run")
)

// Run is a horizontal sequence of Length pixels of palette colour ColorIndex.
type Run struct {
	ColorIndex int
	Length     int
}

// Codec converts between run headers and Runs for one bit depth.
//
// The zero Codec is not usable; create one with NewCodec.
type Codec struct {
	bitDepth   uint8
	lengthBits uint8
	colorMask  byte
	lengthMask byte
}

// NewCodec creates the run codec for bitDepth.
//
// Returns:
//   - Codec: codec with precomputed colour and length masks
//   - error: ErrUnsupportedBitDepth when bitDepth is outside [1, 7]
func NewCodec(bitDepth int) (Codec, error) {
	if bitDepth < MinBitDepth || bitDepth > MaxBitDepth {
		return Codec{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	lengthBits := uint8(groupBits - bitDepth) //nolint:gosec

	return Codec{
		bitDepth:   uint8(bitDepth), //nolint:gosec
		lengthBits: lengthBits,
		colorMask:  byte((1<<bitDepth)-1) << lengthBits,
		lengthMask: byte(1<<lengthBits) - 1,
	}, nil
}

// BitDepth returns the codec's bit depth.
func (c Codec) BitDepth() int {
	return int(c.bitDepth)
}

// ColorMask returns the mask selecting the colour index bits of the first byte.
func (c Codec) ColorMask() byte {
	return c.colorMask
}

// LengthMask returns the mask selecting the length bits of the first byte.
func (c Codec) LengthMask() byte {
	return c.lengthMask
}

// MaxColors returns the palette size addressable at this bit depth.
func (c Codec) MaxColors() int {
	return 1 << c.bitDepth
}

// DecodeRun interprets one variable-length value (7-bit groups, most
// significant first) as a run header.
func (c Codec) DecodeRun(groups []byte) (Run, error) {
	if len(groups) == 0 {
		return Run{}, ErrEmptyValue
	}

	colorIndex := int((groups[0] & c.colorMask) >> c.lengthBits)

	length := int(groups[0] & c.lengthMask)
	for _, g := range groups[1:] {
		if length > math.MaxInt>>groupBits-1 {
			return Run{}, ErrValueOverflow
		}
		length = length<<groupBits | int(g&groupMask)
	}

	return Run{ColorIndex: colorIndex, Length: length + 1}, nil
}

// AppendRun appends the canonical encoding of r to dst.
//
// The canonical form is the shortest one: the stored length (Length-1) is
// split into 7-bit continuation groups, and the first byte carries the
// colour index plus whatever high bits remain. The single exception is the
// run {ColorIndex: 0, Length: 1}, whose shortest form is the byte 0x00. That
// byte would read back as a row terminator, so it is written as 0x80 0x00.
//
// Returns ErrInvalidRun when the colour index does not fit the bit depth or
// the length is less than one.
func (c Codec) AppendRun(dst []byte, r Run) ([]byte, error) {
	if r.ColorIndex < 0 || r.ColorIndex >= c.MaxColors() {
		return dst, fmt.Errorf("%w: colour index %d out of range for bit depth %d", ErrInvalidRun, r.ColorIndex, c.bitDepth)
	}
	if r.Length < 1 {
		return dst, fmt.Errorf("%w: length %d", ErrInvalidRun, r.Length)
	}

	stored := r.Length - 1
	color := byte(r.ColorIndex) << c.lengthBits //nolint:gosec

	// Number of continuation bytes needed so the remaining high part fits the first byte.
	extra := 0
	for stored>>(groupBits*extra) > int(c.lengthMask) {
		extra++
	}

	first := color | byte(stored>>(groupBits*extra))
	if extra == 0 {
		if first == 0x00 {
			return append(dst, moreBit, 0x00), nil
		}

		return append(dst, first), nil
	}

	dst = append(dst, first|moreBit)
	for i := extra - 1; i > 0; i-- {
		dst = append(dst, byte(stored>>(groupBits*i))&groupMask|moreBit)
	}

	return append(dst, byte(stored)&groupMask), nil
}
