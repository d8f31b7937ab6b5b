package raster

import (
	"errors"
	"math"
)

var (
	// ErrEmptyValue reports a variable-length value with no bytes.
	ErrEmptyValue = errors.New("empty variable-length value")
	// ErrValueOverflow reports a variable-length value that does not fit in an int.
	ErrValueOverflow = errors.New("variable-length value overflows int")
)

const (
	groupBits = 7
	groupMask = 0x7F
	moreBit   = 0x80
)

// DecodeValue folds 7-bit groups, most significant first, into an integer.
// Each group must already be masked to its low 7 bits.
func DecodeValue(groups []byte) (int, error) {
	if len(groups) == 0 {
		return 0, ErrEmptyValue
	}

	v := 0
	for _, g := range groups {
		if v > math.MaxInt>>groupBits {
			return 0, ErrValueOverflow
		}
		v = v<<groupBits | int(g&groupMask)
	}

	return v, nil
}

// AppendValue appends the minimal variable-length encoding of v to dst.
// Negative values encode as zero.
func AppendValue(dst []byte, v int) []byte {
	if v < 0 {
		v = 0
	}

	n := ValueLen(v)
	for i := n - 1; i > 0; i-- {
		dst = append(dst, byte(v>>(groupBits*i))&groupMask|moreBit)
	}

	return append(dst, byte(v)&groupMask)
}

// ValueLen returns the number of bytes AppendValue writes for v.
func ValueLen(v int) int {
	n := 1
	for v >>= groupBits; v > 0; v >>= groupBits {
		n++
	}

	return n
}
