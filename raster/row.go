package raster

import (
	"errors"
	"fmt"
)

// ErrEmptyRow reports a row terminator with no row number before it.
var ErrEmptyRow = errors.New("raster row has no row number")

// Row is one decoded raster row.
type Row struct {
	// Number is the 1-based row number.
	Number int
	Runs   []Run
}

// Width returns the total number of pixels described by the row's runs,
// saturating at math.MaxInt.
func (r Row) Width() int {
	w := 0
	for _, run := range r.Runs {
		w = addSat(w, run.Length)
	}

	return w
}

// ParseRow converts the variable-length values collected for one row into a
// Row. values[0] is the row number, every following value is a run header.
func ParseRow(values [][]byte, c Codec) (Row, error) {
	if len(values) == 0 {
		return Row{}, ErrEmptyRow
	}

	number, err := DecodeValue(values[0])
	if err != nil {
		return Row{}, fmt.Errorf("row number: %w", err)
	}

	runs := make([]Run, 0, len(values)-1)
	for i, v := range values[1:] {
		run, err := c.DecodeRun(v)
		if err != nil {
			return Row{}, fmt.Errorf("row %d run %d: %w", number, i, err)
		}
		runs = append(runs, run)
	}

	return Row{Number: number, Runs: runs}, nil
}

// AppendRow appends the encoded row to dst: row number, runs and the 0x00
// row terminator.
func AppendRow(dst []byte, r Row, c Codec) ([]byte, error) {
	if r.Number < 1 {
		return dst, fmt.Errorf("%w: row number %d", ErrInvalidRun, r.Number)
	}

	dst = AppendValue(dst, r.Number)
	for i, run := range r.Runs {
		var err error
		if dst, err = c.AppendRun(dst, run); err != nil {
			return dst, fmt.Errorf("row %d run %d: %w", r.Number, i, err)
		}
	}

	return append(dst, 0x00), nil
}

// InferSize returns the smallest framebuffer size that holds every row:
// the widest row and the highest row number.
func InferSize(rows []Row) (width, height int) {
	for _, r := range rows {
		if w := r.Width(); w > width {
			width = w
		}
		if r.Number > height {
			height = r.Number
		}
	}

	return width, height
}
