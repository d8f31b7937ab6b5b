package raster

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixel(fb []byte, width, x, y int) []byte {
	off := (y*width + x) * 4
	return fb[off : off+4]
}

func TestWriteSegment_SingleRun(t *testing.T) {
	const width = 5
	fb := make([]byte, width*1*4)

	stats := WriteSegment(
		[]Row{{Number: 1, Runs: []Run{{ColorIndex: 0, Length: 3}}}},
		Palette{0: RGB(10, 20, 30)},
		fb, width)

	for x := 0; x < 3; x++ {
		assert.Equal(t, []byte{10, 20, 30, 255}, pixel(fb, width, x, 0), "x=%d", x)
	}
	for x := 3; x < 5; x++ {
		assert.Equal(t, []byte{0, 0, 0, 0}, pixel(fb, width, x, 0), "x=%d untouched", x)
	}
	assert.Equal(t, Stats{Rows: 1, Runs: 1, Pixels: 3}, stats)
}

func TestWriteSegment_FallbackAndTruncation(t *testing.T) {
	const width = 4
	fb := make([]byte, width*2*4)

	rows := []Row{
		{Number: 2, Runs: []Run{{ColorIndex: 1, Length: 2}, {ColorIndex: 9, Length: 5}}},
	}
	stats := WriteSegment(rows, Palette{1: {R: 1, G: 2, B: 3, A: 128}}, fb, width)

	assert.Equal(t, []byte{1, 2, 3, 128}, pixel(fb, width, 0, 1))
	assert.Equal(t, []byte{1, 2, 3, 128}, pixel(fb, width, 1, 1))
	assert.Equal(t, []byte{0, 0, 0, 255}, pixel(fb, width, 2, 1), "missing index paints opaque black")
	assert.Equal(t, []byte{0, 0, 0, 255}, pixel(fb, width, 3, 1))
	assert.Equal(t, []byte{0, 0, 0, 0}, pixel(fb, width, 0, 0), "row 1 untouched")

	assert.Equal(t, 1, stats.FallbackRuns)
	assert.Equal(t, 3, stats.TruncatedPixels)
	assert.Equal(t, 4, stats.Pixels)
}

func TestWriteSegment_RowsOutsideFramebuffer(t *testing.T) {
	const width = 2
	fb := make([]byte, width*1*4)

	stats := WriteSegment([]Row{
		{Number: 0, Runs: []Run{{ColorIndex: 1, Length: 1}}},
		{Number: 2, Runs: []Run{{ColorIndex: 1, Length: 1}}},
	}, Palette{1: RGB(9, 9, 9)}, fb, width)

	assert.Equal(t, 2, stats.SkippedRows)
	assert.Equal(t, 0, stats.Pixels)
	assert.Equal(t, make([]byte, 8), fb)

	stats = WriteSegment([]Row{{Number: 1}}, nil, fb, 0)
	assert.Equal(t, 1, stats.SkippedRows)
}

func TestWriteSegment_LaterRunsContinue(t *testing.T) {
	const width = 6
	fb := make([]byte, width*4)

	palette := Palette{1: RGB(255, 0, 0), 2: RGB(0, 255, 0)}
	WriteSegment([]Row{{Number: 1, Runs: []Run{{ColorIndex: 1, Length: 2}, {ColorIndex: 2, Length: 4}}}}, palette, fb, width)

	want := []color.NRGBA{palette[1], palette[1], palette[2], palette[2], palette[2], palette[2]}
	for x, c := range want {
		require.Equal(t, []byte{c.R, c.G, c.B, c.A}, pixel(fb, width, x, 0), "x=%d", x)
	}
}

func TestStatsAdd(t *testing.T) {
	s := Stats{Rows: 1, Pixels: 2}
	s.Add(Stats{Rows: 2, FallbackRuns: 1, SkippedRows: 3})
	assert.Equal(t, Stats{Rows: 3, Pixels: 2, FallbackRuns: 1, SkippedRows: 3}, s)
}

func TestWriteSegment_HugeRunAfterPaintedPixels(t *testing.T) {
	codec, err := NewCodec(1)
	require.NoError(t, err)

	groups := []byte{0x00, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7E, 0x7F}
	huge, err := codec.DecodeRun(groups)
	require.NoError(t, err)
	require.Equal(t, math.MaxInt-127, huge.Length)

	const width = 1000
	fb := make([]byte, width*1*4)
	rows := []Row{{Number: 1, Runs: []Run{{ColorIndex: 1, Length: 200}, huge}}}

	var stats Stats
	require.NotPanics(t, func() {
		stats = WriteSegment(rows, Palette{0: RGB(1, 1, 1), 1: RGB(2, 2, 2)}, fb, width)
	})

	assert.Equal(t, width, stats.Pixels)
	assert.Equal(t, huge.Length-(width-200), stats.TruncatedPixels)
	assert.Equal(t, []byte{2, 2, 2, 255}, pixel(fb, width, 199, 0))
	assert.Equal(t, []byte{1, 1, 1, 255}, pixel(fb, width, width-1, 0))

	stats.Add(Stats{TruncatedPixels: math.MaxInt})
	assert.Equal(t, math.MaxInt, stats.TruncatedPixels)
}

func TestWriteSegment_WidthBeyondFramebuffer(t *testing.T) {
	fb := make([]byte, 4*4)

	var stats Stats
	require.NotPanics(t, func() {
		stats = WriteSegment([]Row{{Number: 1, Runs: []Run{{Length: 1}}}}, nil, fb, math.MaxInt)
	})
	assert.Equal(t, Stats{SkippedRows: 1}, stats)
}

func TestCheckSize(t *testing.T) {
	require.NoError(t, CheckSize(1000, 1000))
	require.NoError(t, CheckSize(0, 5))
	require.NoError(t, CheckSize(MaxFramebufferPixels, 1))
	require.ErrorIs(t, CheckSize(MaxFramebufferPixels+1, 1), ErrFramebufferTooLarge)
	require.ErrorIs(t, CheckSize(math.MaxInt, math.MaxInt), ErrFramebufferTooLarge)
}
