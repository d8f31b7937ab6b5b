// Package encoder writes BSB/KAP chart streams.
//
// The output is read back by the decoder package record for record: every
// header line added becomes one text record, and every row one raster row
// record with the same runs.
//
//	enc, err := encoder.New(4, encoder.WithRowIndex(true))
//	if err != nil {
//	    return err
//	}
//	for _, e := range entries {
//	    if err := enc.AddEntry(e); err != nil {
//	        return err
//	    }
//	}
//	for _, row := range rows {
//	    if err := enc.AddRow(row); err != nil {
//	        return err
//	    }
//	}
//	kap, err := enc.Finish()
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/arloliu/bsbkap/compress"
	"github.com/arloliu/bsbkap/endian"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/options"
	"github.com/arloliu/bsbkap/internal/pool"
	"github.com/arloliu/bsbkap/raster"
	"github.com/arloliu/bsbkap/text"
)

var (
	// ErrFinished reports use of an Encoder after Finish.
	ErrFinished = errors.New("encoder already finished")
	// ErrHeaderClosed reports a header line added after the first row.
	ErrHeaderClosed = errors.New("header line after raster rows")
	// ErrInvalidLine reports a header line that would not survive a round trip.
	ErrInvalidLine = errors.New("invalid header line")
	// ErrInvalidEntry reports an entry whose type or lines would tokenize differently.
	ErrInvalidEntry = errors.New("invalid header entry")
	// ErrOutputTooLarge reports a chart too large for 32-bit row index offsets.
	ErrOutputTooLarge = errors.New("chart too large for row index")
)

var (
	lineEnd        = []byte{0x0D, 0x0A}
	textSegmentEnd = []byte{0x1A, 0x00}

	// maxIndexOffset is the largest offset a row index entry can hold.
	maxIndexOffset uint64 = math.MaxUint32
)

type stage uint8

const (
	stageText stage = iota
	stageRaster
	stageFinished
)

// Encoder builds one chart.
//
// Note: The Encoder is NOT thread-safe and NOT reusable. After Finish, a new
// Encoder must be created.
type Encoder struct {
	cfg        *config
	buf        *pool.ByteBuffer
	codec      raster.Codec
	engine     endian.EndianEngine
	tokenizer  text.Tokenizer
	stage      stage
	rowOffsets []uint32
}

// New creates an Encoder for rasters of the given bit depth.
//
// Parameters:
//   - bitDepth: bits per colour index, 1 to 7
//   - opts: WithRasterEnd, WithRowIndex, WithCompression
//
// Returns:
//   - *Encoder: encoder accepting header lines
//   - error: unsupported bit depth or invalid option
func New(bitDepth int, opts ...Option) (*Encoder, error) {
	codec, err := raster.NewCodec(bitDepth)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{
		cfg:    cfg,
		buf:    pool.GetEncodeBuffer(),
		codec:  codec,
		engine: endian.GetBigEndianEngine(),
	}, nil
}

// AddLine appends one physical header line, without its CRLF.
func (e *Encoder) AddLine(line string) error {
	switch e.stage {
	case stageFinished:
		return ErrFinished
	case stageRaster:
		return ErrHeaderClosed
	case stageText:
	}

	if strings.ContainsAny(line, "\r\n\x00") {
		return fmt.Errorf("%w: %q contains CR, LF or NUL", ErrInvalidLine, line)
	}
	if err := e.tokenizer.Add(line); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLine, err)
	}

	e.buf.MustWrite([]byte(line))
	e.buf.MustWrite(lineEnd)

	return nil
}

// AddEntry appends the physical lines of one header entry.
func (e *Encoder) AddEntry(entry text.Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	for _, line := range entry.Render() {
		if err := e.AddLine(line); err != nil {
			return err
		}
	}

	return nil
}

// Entries returns the header as the decoder will tokenize it.
func (e *Encoder) Entries() []text.Entry {
	return e.tokenizer.Entries()
}

// AddRow appends one raster row. The first call closes the header.
func (e *Encoder) AddRow(row raster.Row) error {
	if e.stage == stageFinished {
		return ErrFinished
	}
	e.closeHeader()

	offset := e.buf.Len()
	if e.cfg.rowIndex && uint64(offset) > maxIndexOffset {
		return fmt.Errorf("row %d: %w", row.Number, ErrOutputTooLarge)
	}

	b, err := raster.AppendRow(e.buf.B, row, e.codec)
	if err != nil {
		e.buf.B = e.buf.B[:offset]
		return fmt.Errorf("row %d: %w", row.Number, err)
	}
	e.buf.B = b

	if e.cfg.rowIndex {
		e.rowOffsets = append(e.rowOffsets, uint32(offset)) //nolint:gosec
	}

	return nil
}

// Finish writes the raster end token and, if enabled, the row index table,
// and returns the chart. The pooled buffer is released whatever the outcome.
//
// Returns:
//   - []byte: the chart, compressed when WithCompression was given
//   - error: ErrFinished, ErrOutputTooLarge or a compression failure
func (e *Encoder) Finish() ([]byte, error) {
	defer e.release()

	out, err := e.finish()
	if err != nil {
		return nil, err
	}
	if e.cfg.compression == format.CompressionNone {
		// out aliases the pooled buffer.
		out = bytes.Clone(out)
	}

	return out, nil
}

// FinishTo is Finish writing the chart to w instead of returning it.
func (e *Encoder) FinishTo(w io.Writer) (int64, error) {
	defer e.release()

	out, err := e.finish()
	if err != nil {
		return 0, err
	}
	if e.cfg.compression == format.CompressionNone {
		return e.buf.WriteTo(w)
	}

	n, err := w.Write(out)

	return int64(n), err
}

func (e *Encoder) finish() ([]byte, error) {
	if e.stage == stageFinished {
		return nil, ErrFinished
	}
	e.closeHeader()
	e.stage = stageFinished

	e.buf.MustWrite(e.cfg.rasterEnd.Token())

	if e.cfg.rowIndex {
		tableOffset := e.buf.Len()
		if uint64(tableOffset) > maxIndexOffset {
			return nil, ErrOutputTooLarge
		}

		e.buf.Grow(4 * (len(e.rowOffsets) + 1))
		for _, off := range e.rowOffsets {
			e.buf.B = e.engine.AppendUint32(e.buf.B, off)
		}
		e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(tableOffset)) //nolint:gosec
	}

	if e.cfg.compression == format.CompressionNone {
		return e.buf.Bytes(), nil
	}

	codec, err := compress.GetCodec(e.cfg.compression)
	if err != nil {
		return nil, err
	}
	out, err := codec.Compress(e.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to compress chart: %w", err)
	}

	return out, nil
}

func (e *Encoder) release() {
	if e.buf != nil {
		pool.PutEncodeBuffer(e.buf)
		e.buf = nil
	}
}

func (e *Encoder) closeHeader() {
	if e.stage != stageText {
		return
	}

	e.buf.MustWrite(textSegmentEnd)
	_ = e.buf.WriteByte(byte(e.codec.BitDepth()))
	e.stage = stageRaster
}

// validateEntry rejects entries that Render would turn into lines tokenizing
// to a different entry.
func validateEntry(entry text.Entry) error {
	if len(entry.Lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidEntry)
	}

	first := entry.Lines[0]
	switch entry.Type {
	case text.CommentType:
	case text.UnknownType:
		if first == "" || strings.Contains(first, "/") || strings.HasPrefix(first, "!") || strings.HasPrefix(first, " ") {
			return fmt.Errorf("%w: untyped line %q", ErrInvalidEntry, first)
		}
	default:
		if entry.Type == "" || strings.Contains(entry.Type, "/") ||
			strings.HasPrefix(entry.Type, "!") || strings.HasPrefix(entry.Type, " ") {
			return fmt.Errorf("%w: type %q", ErrInvalidEntry, entry.Type)
		}
	}

	return nil
}

// Encode writes a complete chart in one call.
func Encode(entries []text.Entry, bitDepth int, rows []raster.Row, opts ...Option) ([]byte, error) {
	enc, err := New(bitDepth, opts...)
	if err != nil {
		return nil, err
	}
	defer enc.release()

	if err := enc.add(entries, rows); err != nil {
		return nil, err
	}

	return enc.Finish()
}

func (e *Encoder) add(entries []text.Entry, rows []raster.Row) error {
	for _, entry := range entries {
		if err := e.AddEntry(entry); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := e.AddRow(row); err != nil {
			return err
		}
	}

	return nil
}

// EncodeTo writes a complete chart to w in one call.
func EncodeTo(w io.Writer, entries []text.Entry, bitDepth int, rows []raster.Row, opts ...Option) (int64, error) {
	enc, err := New(bitDepth, opts...)
	if err != nil {
		return 0, err
	}
	defer enc.release()

	if err := enc.add(entries, rows); err != nil {
		return 0, err
	}

	return enc.FinishTo(w)
}
