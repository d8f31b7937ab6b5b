// Package stream implements the incremental byte buffer that the chart decoder
// reads from.
//
// Chunks of any size are appended with Push. Every TryRead method either reads
// one complete unit or reads nothing at all, so a caller that gets "not yet"
// can wait for the next chunk and retry from exactly the same position. This
// is what makes decoding independent of where the chunk boundaries fall.
//
// Slices returned by the TryRead methods alias the buffer's storage and are
// only valid until the next call to Push.
package stream

import (
	"bytes"

	"github.com/arloliu/bsbkap/internal/pool"
)

// compactThreshold is the minimum consumed prefix before Push reclaims it.
const compactThreshold = 4096

// ValueStatus reports the outcome of AppendValue.
type ValueStatus uint8

const (
	// ValueOK means a complete value was read and consumed.
	ValueOK ValueStatus = iota
	// ValueIncomplete means the buffer ran out before the terminating byte.
	ValueIncomplete
	// ValueInterrupted means a 0x00 byte was met before the value terminated.
	// Only reported when zero bytes are treated as delimiters.
	ValueInterrupted
)

// Buffer accumulates pushed chunks behind a logical read position.
//
// Bytes before the read position are never read again. The consumed prefix is
// reclaimed when it grows past both compactThreshold and half of the stored
// bytes, which keeps the shifting cost amortized linear.
type Buffer struct {
	arena    *pool.ByteBuffer
	pos      int
	consumed int64
}

// NewBuffer creates an empty buffer backed by a pooled arena.
func NewBuffer() *Buffer {
	return &Buffer{arena: pool.GetArenaBuffer()}
}

// Push appends chunk after all previously pushed bytes.
func (b *Buffer) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	if b.pos >= compactThreshold && b.pos*2 >= b.arena.Len() {
		b.arena.Discard(b.pos)
		b.pos = 0
	}

	b.arena.MustWrite(chunk)
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.arena.Len() - b.pos
}

// Offset returns the absolute stream offset of the read position.
func (b *Buffer) Offset() int64 {
	return b.consumed
}

// Peek returns the unread bytes without consuming them.
func (b *Buffer) Peek() []byte {
	return b.arena.B[b.pos:]
}

// TryReadUntil consumes and returns everything up to and including the first
// occurrence of delim. It consumes nothing and returns false if delim is not
// present in the unread bytes.
func (b *Buffer) TryReadUntil(delim []byte) ([]byte, bool) {
	idx := bytes.Index(b.Peek(), delim)
	if idx < 0 {
		return nil, false
	}

	return b.read(idx + len(delim)), true
}

// TryReadExactMatch returns how many leading bytes of pattern match the
// unread bytes. The bytes are consumed only when the whole pattern matches.
//
// A result smaller than len(pattern) but equal to Len() means the match is
// still possible once more data arrives; any other short result is a
// definite mismatch. See Match for the classified form.
func (b *Buffer) TryReadExactMatch(pattern []byte) int {
	head := b.Peek()

	n := 0
	for n < len(pattern) && n < len(head) && head[n] == pattern[n] {
		n++
	}

	if n == len(pattern) {
		b.read(n)
	}

	return n
}

// TryReadLength consumes and returns exactly n bytes if they are available.
func (b *Buffer) TryReadLength(n int) ([]byte, bool) {
	if b.Len() < n {
		return nil, false
	}

	return b.read(n), true
}

// AppendValue reads one base-128 variable-length value: successive bytes while
// the high bit is set, up to and including the first byte with the high bit
// clear. Each byte is masked to its low 7 bits and appended to dst.
//
// Nothing is consumed unless the status is ValueOK. When stopAtZero is set a
// literal 0x00 anywhere in the value yields ValueInterrupted, because 0x00 is
// the row and segment delimiter.
func (b *Buffer) AppendValue(dst []byte, stopAtZero bool) ([]byte, ValueStatus) {
	head := b.Peek()

	for i, c := range head {
		if stopAtZero && c == 0x00 {
			return dst, ValueInterrupted
		}
		if c&0x80 == 0 {
			for _, v := range head[:i+1] {
				dst = append(dst, v&0x7F)
			}
			b.read(i + 1)

			return dst, ValueOK
		}
	}

	return dst, ValueIncomplete
}

// Release returns the arena to the pool. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	if b.arena == nil {
		return
	}
	pool.PutArenaBuffer(b.arena)
	b.arena = nil
	b.pos = 0
}

func (b *Buffer) read(n int) []byte {
	out := b.arena.B[b.pos : b.pos+n]
	b.pos += n
	b.consumed += int64(n)

	return out
}

// MatchResult classifies a TryReadExactMatch result.
type MatchResult uint8

const (
	// MatchNone means the pattern definitely does not start here.
	MatchNone MatchResult = iota
	// MatchPartial means every available byte matches; wait for more data.
	MatchPartial
	// MatchFull means the pattern matched and was consumed.
	MatchFull
)

// Match runs TryReadExactMatch and classifies its result.
func (b *Buffer) Match(pattern []byte) MatchResult {
	avail := b.Len()
	n := b.TryReadExactMatch(pattern)

	switch {
	case n == len(pattern):
		return MatchFull
	case n > 0 && n == avail:
		return MatchPartial
	default:
		return MatchNone
	}
}
