package encoder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/bsbkap/compress"
	"github.com/arloliu/bsbkap/decoder"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/raster"
	"github.com/arloliu/bsbkap/text"
)

func sampleEntries() []text.Entry {
	return []text.Entry{
		{Type: text.CommentType, Lines: []string{" generated"}},
		{Type: "VER", Lines: []string{"3.0"}},
		{Type: "BSB", Lines: []string{"NA=TEST,NU=1", "RA=4,2,DU=254"}},
		{Type: "RGB", Lines: []string{"1,255,0,0"}},
		{Type: "RGB", Lines: []string{"2,0,255,0"}},
	}
}

func sampleRows() []raster.Row {
	return []raster.Row{
		{Number: 1, Runs: []raster.Run{{ColorIndex: 1, Length: 4}}},
		{Number: 2, Runs: []raster.Run{{ColorIndex: 2, Length: 2}, {ColorIndex: 1, Length: 2}}},
	}
}

func TestEncode_Bytes(t *testing.T) {
	out, err := Encode(sampleEntries()[1:2], 2, sampleRows())
	require.NoError(t, err)

	want := []byte("VER/3.0\r\n\x1A\x00\x02")
	want = append(want, 0x01, 0x23, 0x00)
	want = append(want, 0x02, 0x41, 0x21, 0x00)
	want = append(want, 0x00, 0x00, 0x00, 0x00)
	require.Equal(t, want, out)
}

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		dec  []decoder.Option
		end  format.RasterEnd
	}{
		{"quad", nil, nil, format.RasterEndQuad},
		{"single", []Option{WithRasterEnd(format.RasterEndSingle)}, nil, format.RasterEndSingle},
		{"quad with index", []Option{WithRowIndex(true)}, nil, format.RasterEndQuad},
		{
			"single with index",
			[]Option{WithRasterEnd(format.RasterEndSingle), WithRowIndex(true)},
			[]decoder.Option{decoder.WithRasterEnd(format.RasterEndSingle)},
			format.RasterEndSingle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(sampleEntries(), 2, sampleRows(), tt.opts...)
			require.NoError(t, err)

			d, err := decoder.New(append(tt.dec, decoder.WithKeepTrailer(true))...)
			require.NoError(t, err)
			defer d.Release()
			require.NoError(t, d.Push(out))
			d.EndInput()

			var rows []raster.Row
			for rec, err := range d.Drain() {
				require.NoError(t, err)
				if rec.Kind == format.KindRasterRow {
					rows = append(rows, rec.Row)
				}
			}

			require.Equal(t, sampleRows(), rows)
			require.Equal(t, sampleEntries(), d.Entries())
			require.Equal(t, 2, d.BitDepth())

			end, seen := d.RasterEnd()
			require.True(t, seen)
			require.Equal(t, tt.end, end)
		})
	}
}

func TestEncode_RowIndexPointsAtRows(t *testing.T) {
	rows := make([]raster.Row, 0, 300)
	for n := 1; n <= 300; n++ {
		rows = append(rows, raster.Row{Number: n, Runs: []raster.Run{
			{ColorIndex: n % 8, Length: n},
			{ColorIndex: 0, Length: 1},
		}})
	}

	out, err := Encode(sampleEntries(), 3, rows, WithRowIndex(true))
	require.NoError(t, err)

	records, trailer := decodeWithTrailer(t, out)
	idx, err := ParseRowIndex(trailer, len(rows))
	require.NoError(t, err)
	require.Len(t, idx.Offsets, len(rows))
	assert.Equal(t, uint32(len(out)-4*(len(rows)+1)), idx.TableOffset)

	var rowRecords []decoder.Record
	for _, rec := range records {
		if rec.Kind == format.KindRasterRow {
			rowRecords = append(rowRecords, rec)
		}
	}
	require.Len(t, rowRecords, len(rows))
	for i, rec := range rowRecords {
		assert.Equal(t, uint32(rec.Offset), idx.Offsets[i], "row %d", i+1) //nolint:gosec
		assert.Equal(t, rows[i], rec.Row)
	}
}

func TestEncode_Compressed(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			plain, err := Encode(sampleEntries(), 2, sampleRows())
			require.NoError(t, err)

			packed, err := Encode(sampleEntries(), 2, sampleRows(), WithCompression(ct))
			require.NoError(t, err)
			require.Equal(t, ct, compress.Detect(packed))

			got, detected, err := compress.DecompressAuto(packed)
			require.NoError(t, err)
			require.Equal(t, ct, detected)
			require.Equal(t, plain, got)
		})
	}
}

func TestEncoder_Stages(t *testing.T) {
	enc, err := New(2)
	require.NoError(t, err)

	require.NoError(t, enc.AddLine("VER/3.0"))
	require.NoError(t, enc.AddRow(sampleRows()[0]))
	require.ErrorIs(t, enc.AddLine("BSB/NA=LATE"), ErrHeaderClosed)

	out, err := enc.Finish()
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("VER/3.0\r\n\x1A\x00\x02")))

	_, err = enc.Finish()
	require.ErrorIs(t, err, ErrFinished)
	require.ErrorIs(t, enc.AddRow(sampleRows()[1]), ErrFinished)
	require.ErrorIs(t, enc.AddLine("x"), ErrFinished)
}

func TestEncoder_HeaderOnly(t *testing.T) {
	enc, err := New(1, WithRasterEnd(format.RasterEndSingle))
	require.NoError(t, err)
	require.NoError(t, enc.AddLine("VER/3.0"))

	out, err := enc.Finish()
	require.NoError(t, err)
	require.Equal(t, []byte("VER/3.0\r\n\x1A\x00\x01\x00"), out)
}

func TestEncoder_InvalidInput(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, raster.ErrUnsupportedBitDepth)

	_, err = New(2, WithRasterEnd(format.RasterEndAuto))
	require.Error(t, err)

	_, err = New(2, WithCompression(format.CompressionAuto))
	require.Error(t, err)

	enc, err := New(2)
	require.NoError(t, err)
	defer func() { _, _ = enc.Finish() }()

	require.ErrorIs(t, enc.AddLine("a\r\nb"), ErrInvalidLine)
	require.ErrorIs(t, enc.AddLine("a\x00"), ErrInvalidLine)
	require.ErrorIs(t, enc.AddLine("    orphan"), ErrInvalidLine)
	require.ErrorIs(t, enc.AddLine("    orphan"), text.ErrOrphanContinuation)

	require.ErrorIs(t, enc.AddEntry(text.Entry{Type: "RGB"}), ErrInvalidEntry)
	require.ErrorIs(t, enc.AddEntry(text.Entry{Type: "A/B", Lines: []string{"x"}}), ErrInvalidEntry)
	require.ErrorIs(t, enc.AddEntry(text.Entry{Type: text.UnknownType, Lines: []string{"a/b"}}), ErrInvalidEntry)

	require.ErrorIs(t, enc.AddRow(raster.Row{Number: 0}), raster.ErrInvalidRun)
	require.ErrorIs(t, enc.AddRow(raster.Row{Number: 1, Runs: []raster.Run{{ColorIndex: 4, Length: 1}}}), raster.ErrInvalidRun)
	require.NoError(t, enc.AddRow(sampleRows()[0]))
}

func TestEncoder_RejectedRowLeavesNoBytes(t *testing.T) {
	enc, err := New(2)
	require.NoError(t, err)
	require.NoError(t, enc.AddRow(sampleRows()[0]))
	require.Error(t, enc.AddRow(raster.Row{Number: 2, Runs: []raster.Run{{ColorIndex: 1, Length: 1}, {ColorIndex: 9, Length: 1}}}))

	out, err := enc.Finish()
	require.NoError(t, err)
	require.Equal(t, []byte("\x1A\x00\x02\x01\x23\x00\x00\x00\x00\x00"), out)
}

func TestEncoder_RowPastIndexLimitLeavesNoBytes(t *testing.T) {
	saved := maxIndexOffset
	t.Cleanup(func() { maxIndexOffset = saved })

	enc, err := New(2, WithRowIndex(true))
	require.NoError(t, err)
	require.NoError(t, enc.AddRow(sampleRows()[0]))

	// The header closes at offset 3 and the first row ends at offset 6.
	maxIndexOffset = 5
	require.ErrorIs(t, enc.AddRow(sampleRows()[1]), ErrOutputTooLarge)

	maxIndexOffset = saved
	out, err := enc.Finish()
	require.NoError(t, err)

	want := []byte("\x1A\x00\x02\x01\x23\x00\x00\x00\x00\x00")
	want = append(want, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x0A)
	require.Equal(t, want, out)

	idx, err := ParseRowIndex(out[10:], 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, idx.Offsets)
	assert.Equal(t, uint32(10), idx.TableOffset)
}

func TestParseRowIndex(t *testing.T) {
	trailer := []byte{
		0x00, 0x00, 0x01, 0x00,
		0x00, 0x00, 0x01, 0x10,
		0x00, 0x00, 0x02, 0x00,
		0xEE, // ignored
	}

	idx, err := ParseRowIndex(trailer, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x100, 0x110}, idx.Offsets)
	assert.Equal(t, uint32(0x200), idx.TableOffset)

	_, err = ParseRowIndex(trailer[:8], 2)
	require.ErrorIs(t, err, ErrShortRowIndex)

	_, err = ParseRowIndex([]byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x02, 0x00}, 1)
	require.ErrorIs(t, err, ErrInvalidRowIndex)

	_, err = ParseRowIndex(trailer, -1)
	require.ErrorIs(t, err, ErrInvalidRowIndex)
}

func decodeWithTrailer(t *testing.T, data []byte) ([]decoder.Record, []byte) {
	t.Helper()

	d, err := decoder.New(decoder.WithKeepTrailer(true))
	require.NoError(t, err)
	defer d.Release()

	require.NoError(t, d.Push(data))
	d.EndInput()

	var records []decoder.Record
	for rec, err := range d.Drain() {
		require.NoError(t, err)
		records = append(records, rec)
	}

	return records, bytes.Clone(d.Trailer())
}

func TestEncodeTo(t *testing.T) {
	want, err := Encode(sampleEntries(), 2, sampleRows(), WithRowIndex(true))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := EncodeTo(&buf, sampleEntries(), 2, sampleRows(), WithRowIndex(true))
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), n)
	require.Equal(t, want, buf.Bytes())

	buf.Reset()
	_, err = EncodeTo(&buf, sampleEntries(), 2, sampleRows(), WithCompression(format.CompressionS2))
	require.NoError(t, err)
	got, err := compress.NewS2Compressor().Decompress(buf.Bytes())
	require.NoError(t, err)
	plain, err := Encode(sampleEntries(), 2, sampleRows())
	require.NoError(t, err)
	require.Equal(t, plain, got)

	_, err = EncodeTo(&buf, []text.Entry{{Type: "X"}}, 2, nil)
	require.ErrorIs(t, err, ErrInvalidEntry)
}
