package raster

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func mask7(enc []byte) []byte {
	out := make([]byte, len(enc))
	for i, b := range enc {
		out[i] = b & 0x7F
	}

	return out
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		depth      int
		colorMask  byte
		lengthMask byte
	}{
		{1, 0b01000000, 0b00111111},
		{2, 0b01100000, 0b00011111},
		{3, 0b01110000, 0b00001111},
		{4, 0b01111000, 0b00000111},
		{5, 0b01111100, 0b00000011},
		{6, 0b01111110, 0b00000001},
		{7, 0b01111111, 0b00000000},
	}
	for _, tt := range tests {
		c, err := NewCodec(tt.depth)
		require.NoError(t, err)
		require.Equal(t, tt.depth, c.BitDepth())
		require.Equal(t, tt.colorMask, c.ColorMask(), "depth %d", tt.depth)
		require.Equal(t, tt.lengthMask, c.LengthMask(), "depth %d", tt.depth)
		require.Equal(t, 1<<tt.depth, c.MaxColors())
	}
}

func TestNewCodec_Unsupported(t *testing.T) {
	for _, depth := range []int{-1, 0, 8, 255} {
		_, err := NewCodec(depth)
		require.ErrorIs(t, err, ErrUnsupportedBitDepth, "depth %d", depth)
	}
}

func TestDecodeRun(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		groups []byte
		want   Run
	}{
		{"depth 4 single byte", 4, []byte{0x78}, Run{ColorIndex: 15, Length: 1}},
		{"depth 4 with length bits", 4, []byte{0x0D}, Run{ColorIndex: 1, Length: 6}},
		{"depth 4 continuation", 4, []byte{0x09, 0x05}, Run{ColorIndex: 1, Length: 1*128 + 5 + 1}},
		{"depth 1", 1, []byte{0x7F}, Run{ColorIndex: 1, Length: 64}},
		{"depth 7 single byte", 7, []byte{0x2A}, Run{ColorIndex: 42, Length: 1}},
		{"depth 7 continuation", 7, []byte{0x2A, 0x09}, Run{ColorIndex: 42, Length: 10}},
		{"depth 7 zero group", 7, []byte{0x00, 0x00}, Run{ColorIndex: 0, Length: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.depth)
			require.NoError(t, err)

			got, err := c.DecodeRun(tt.groups)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRun_Empty(t *testing.T) {
	c, err := NewCodec(3)
	require.NoError(t, err)

	_, err = c.DecodeRun(nil)
	require.ErrorIs(t, err, ErrEmptyValue)
}

func TestAppendRun_Canonical(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		run   Run
		want  []byte
	}{
		{"fits first byte", 4, Run{ColorIndex: 15, Length: 1}, []byte{0x78}},
		{"max first byte", 4, Run{ColorIndex: 1, Length: 8}, []byte{0x0F}},
		{"one continuation", 4, Run{ColorIndex: 1, Length: 9}, []byte{0x88, 0x08}},
		{"terminal zero group", 4, Run{ColorIndex: 2, Length: 129}, []byte{0x91, 0x00}},
		{"depth 7 length 1", 7, Run{ColorIndex: 5, Length: 1}, []byte{0x05}},
		{"depth 7 length 2", 7, Run{ColorIndex: 5, Length: 2}, []byte{0x85, 0x01}},
		{"colour 0 length 1 avoids zero byte", 3, Run{ColorIndex: 0, Length: 1}, []byte{0x80, 0x00}},
		{"colour 0 length 2", 3, Run{ColorIndex: 0, Length: 2}, []byte{0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.depth)
			require.NoError(t, err)

			got, err := c.AppendRun(nil, tt.run)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NotEqual(t, byte(0x00), got[0], "first byte never collides with the row terminator")
		})
	}
}

func TestAppendRun_Invalid(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	_, err = c.AppendRun(nil, Run{ColorIndex: 4, Length: 1})
	require.ErrorIs(t, err, ErrInvalidRun)

	_, err = c.AppendRun(nil, Run{ColorIndex: -1, Length: 1})
	require.ErrorIs(t, err, ErrInvalidRun)

	_, err = c.AppendRun(nil, Run{ColorIndex: 1, Length: 0})
	require.ErrorIs(t, err, ErrInvalidRun)
}

func TestRunRoundTrip(t *testing.T) {
	lengths := []int{1, 2, 3, 63, 64, 65, 127, 128, 129, 255, 256, 1000, 16384, 16385, 1 << 21, 1<<28 + 7}

	for depth := MinBitDepth; depth <= MaxBitDepth; depth++ {
		c, err := NewCodec(depth)
		require.NoError(t, err)

		for color := 0; color < c.MaxColors(); color++ {
			for _, length := range lengths {
				want := Run{ColorIndex: color, Length: length}

				enc, err := c.AppendRun(nil, want)
				require.NoError(t, err)

				got, err := c.DecodeRun(mask7(enc))
				require.NoError(t, err)
				require.Equal(t, want, got, "depth %d", depth)
			}
		}
	}
}

func TestRunRoundTrip_Minimal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for depth := MinBitDepth; depth <= MaxBitDepth; depth++ {
		c, err := NewCodec(depth)
		require.NoError(t, err)

		for i := 0; i < 2000; i++ {
			want := Run{ColorIndex: rng.IntN(c.MaxColors()), Length: 1 + rng.IntN(1<<16)}
			enc, err := c.AppendRun(nil, want)
			require.NoError(t, err)

			// Minimal length: the stored length needs (7-depth) + 7*(n-1) bits.
			stored := want.Length - 1
			n := 1
			for stored>>(7*(n-1)) > int(c.LengthMask()) {
				n++
			}
			if want.ColorIndex == 0 && stored == 0 {
				n = 2
			}
			require.Len(t, enc, n, "depth %d run %+v", depth, want)

			got, err := c.DecodeRun(mask7(enc))
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}
