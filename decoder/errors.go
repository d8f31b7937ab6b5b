package decoder

import (
	"errors"
	"fmt"

	"github.com/arloliu/bsbkap/format"
)

var (
	// ErrMalformed reports input that can never decode, whatever bytes follow.
	ErrMalformed = errors.New("malformed chart structure")
	// ErrTruncated reports input that ended in the middle of a structural unit.
	ErrTruncated = errors.New("truncated chart")
	// ErrInputEnded reports a Push after EndInput.
	ErrInputEnded = errors.New("push after end of input")
)

// DecodeError carries the position at which decoding stopped being possible.
// Records returned before the error remain valid.
type DecodeError struct {
	// Offset is the absolute stream offset of the unit that failed.
	Offset int64
	// State is the decoder state in which the failure was detected.
	State format.State
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed at offset %d in state %s: %v", e.Offset, e.State, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
