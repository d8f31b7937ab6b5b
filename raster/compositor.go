package raster

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// MaxFramebufferPixels bounds the framebuffers CheckSize accepts (1 GiB of RGBA).
const MaxFramebufferPixels = 1 << 28

// ErrFramebufferTooLarge reports a raster size beyond MaxFramebufferPixels.
var ErrFramebufferTooLarge = errors.New("raster size exceeds framebuffer limit")

// Palette maps colour indices to colours. It is produced from the chart's
// RGB header entries; palette entries conventionally start at index 1.
type Palette map[int]color.NRGBA

// FallbackColor is painted for runs whose colour index is not in the palette.
var FallbackColor = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}

// RGB returns an opaque palette colour.
func RGB(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

// Stats summarizes one WriteSegment call.
type Stats struct {
	// Rows is the number of rows painted.
	Rows int
	// Runs is the number of runs painted.
	Runs int
	// Pixels is the number of pixels written.
	Pixels int
	// FallbackRuns counts runs whose colour index was missing from the palette.
	// A non-zero value usually means a damaged header or raster.
	FallbackRuns int
	// TruncatedPixels counts run pixels dropped past the framebuffer width.
	TruncatedPixels int
	// SkippedRows counts rows whose number falls outside the framebuffer.
	SkippedRows int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Rows += other.Rows
	s.Runs += other.Runs
	s.Pixels += other.Pixels
	s.FallbackRuns += other.FallbackRuns
	s.TruncatedPixels = addSat(s.TruncatedPixels, other.TruncatedPixels)
	s.SkippedRows += other.SkippedRows
}

// CheckSize rejects framebuffers larger than MaxFramebufferPixels.
// Non-positive sizes are left to the caller.
func CheckSize(width, height int) error {
	if width > 0 && height > 0 && width > MaxFramebufferPixels/height {
		return fmt.Errorf("%w: %dx%d", ErrFramebufferTooLarge, width, height)
	}

	return nil
}

// addSat adds two non-negative counts, saturating at math.MaxInt.
func addSat(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}

	return a + b
}

// WriteSegment paints rows into fb, an RGBA framebuffer of the given width
// (4 bytes per pixel, rows packed without padding).
//
// For each row, runs are painted left to right starting at x = 0 and
// y = Number-1. Pixels past width are dropped and counted, not an error.
// Rows that would land outside fb are skipped and counted.
func WriteSegment(rows []Row, palette Palette, fb []byte, width int) Stats {
	var stats Stats
	if width <= 0 || width > len(fb)/4 {
		stats.SkippedRows = len(rows)
		return stats
	}

	stride := width * 4
	height := len(fb) / stride

	for _, row := range rows {
		y := row.Number - 1
		if y < 0 || y >= height {
			stats.SkippedRows++
			continue
		}
		stats.Rows++

		line := fb[y*stride : (y+1)*stride]
		x := 0
		for _, run := range row.Runs {
			c, ok := palette[run.ColorIndex]
			if !ok {
				c = FallbackColor
				stats.FallbackRuns++
			}
			stats.Runs++

			n := run.Length
			if n > width-x {
				stats.TruncatedPixels = addSat(stats.TruncatedPixels, n-(width-x))
				n = width - x
			}

			for i := 0; i < n; i++ {
				off := (x + i) * 4
				line[off] = c.R
				line[off+1] = c.G
				line[off+2] = c.B
				line[off+3] = c.A
			}
			x += n
			stats.Pixels += n
		}
	}

	return stats
}
