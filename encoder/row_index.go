package encoder

import (
	"errors"
	"fmt"

	"github.com/arloliu/bsbkap/endian"
)

var (
	// ErrShortRowIndex reports a trailer too short for the expected number of rows.
	ErrShortRowIndex = errors.New("row index table too short")
	// ErrInvalidRowIndex reports row offsets that do not precede the table.
	ErrInvalidRowIndex = errors.New("invalid row index table")
)

// RowIndex is the table that follows the raster segment.
type RowIndex struct {
	// Offsets holds the file offset of each row start.
	Offsets []uint32
	// TableOffset is the file offset of the table itself.
	TableOffset uint32
}

// ParseRowIndex reads the row index table for rows rows from the bytes that
// follow the raster end token (decoder.WithKeepTrailer collects them).
// Bytes after the table are ignored.
func ParseRowIndex(trailer []byte, rows int) (RowIndex, error) {
	if rows < 0 {
		return RowIndex{}, fmt.Errorf("%w: negative row count %d", ErrInvalidRowIndex, rows)
	}

	need := 4 * (rows + 1)
	if len(trailer) < need {
		return RowIndex{}, fmt.Errorf("%w: need %d bytes, have %d", ErrShortRowIndex, need, len(trailer))
	}

	engine := endian.GetBigEndianEngine()
	idx := RowIndex{
		Offsets:     make([]uint32, rows),
		TableOffset: engine.Uint32(trailer[4*rows:]),
	}
	for i := range idx.Offsets {
		off := engine.Uint32(trailer[4*i:])
		if off >= idx.TableOffset {
			return RowIndex{}, fmt.Errorf("%w: row %d offset %d is past table offset %d",
				ErrInvalidRowIndex, i, off, idx.TableOffset)
		}
		idx.Offsets[i] = off
	}

	return idx, nil
}
