// Package decoder implements the BSB/KAP chart stream state machine.
//
// A Decoder consumes an unbounded sequence of byte chunks and produces
// records in stream order: one KindTextLine per header line, one
// KindBitDepth, then one KindRasterRow per raster row. It never needs the
// whole file in memory and produces the same records however the input is
// split into chunks.
//
// Basic usage:
//
//	dec, err := decoder.New()
//	if err != nil {
//	    return err
//	}
//	defer dec.Release()
//
//	for chunk := range chunks {
//	    if err := dec.Push(chunk); err != nil {
//	        return err
//	    }
//	    for rec, err := range dec.Drain() {
//	        if err != nil {
//	            return err
//	        }
//	        handle(rec)
//	    }
//	}
//
//	dec.EndInput()
//	for rec, err := range dec.Drain() {
//	    ...
//	}
//
// # States
//
//	ReadingText -> ReadingBitDepth -> ReadingRasterSegment <-> ReadingRasterRow
//	                                          |
//	                                          v
//	                                       Terminal
//
// Each state makes progress only when a complete unit is buffered. Otherwise
// the decoder suspends until the next Push. After EndInput, a suspension
// anywhere other than a row boundary or the end of the header is reported as
// ErrTruncated.
//
// # Thread Safety
//
// A Decoder is not safe for concurrent use. Decode independent streams with
// independent Decoders; they share no state.
package decoder

import (
	"fmt"
	"iter"

	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/options"
	"github.com/arloliu/bsbkap/internal/stream"
	"github.com/arloliu/bsbkap/raster"
	"github.com/arloliu/bsbkap/text"
)

var (
	lineEndToken        = []byte{0x0D, 0x0A}
	textSegmentEndToken = []byte{0x1A, 0x00}
	rowEndToken         = []byte{0x00}
)

// Decoder is one chart decode session.
type Decoder struct {
	cfg   *config
	buf   *stream.Buffer
	state format.State

	tokenizer text.Tokenizer
	codec     raster.Codec
	bitDepth  int

	// Values of the row being collected, as 7-bit groups laid end to end.
	// valueEnds[i] is the end of value i in values.
	values    []byte
	valueEnds []int
	rowStart  int64

	rasterEnd format.RasterEnd
	endSeen   bool
	trailer   []byte

	inputEnded bool
	err        error
}

// New creates a Decoder in the ReadingText state.
func New(opts ...Option) (*Decoder, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{
		cfg:   cfg,
		buf:   stream.NewBuffer(),
		state: format.StateReadingText,
	}, nil
}

// Push appends a chunk of input. It performs no decoding; call Advance or
// Drain afterwards.
func (d *Decoder) Push(chunk []byte) error {
	if d.inputEnded {
		return ErrInputEnded
	}
	if d.state == format.StateTerminal {
		d.keepTrailing(chunk)
		return nil
	}
	d.buf.Push(chunk)

	return nil
}

// EndInput marks the end of the input. Later Advance calls finish the
// decode and report truncation instead of waiting for more data.
func (d *Decoder) EndInput() {
	d.inputEnded = true
}

// Advance makes as much progress as the buffered input allows and returns
// the next record.
//
// Returns:
//   - Record: the decoded record when ok is true
//   - bool: false when no record can be produced until more input arrives,
//     or when decoding is complete
//   - error: a *DecodeError; once returned, every later call returns it again
func (d *Decoder) Advance() (Record, bool, error) {
	if d.err != nil {
		return Record{}, false, d.err
	}

	for {
		rec, emitted, progressed, err := d.step()
		if err != nil {
			d.err = err
			return Record{}, false, err
		}
		if emitted {
			return rec, true, nil
		}
		if !progressed {
			if d.inputEnded {
				if err := d.finish(); err != nil {
					d.err = err
					return Record{}, false, err
				}
			}

			return Record{}, false, nil
		}
	}
}

// Drain yields records until the decoder suspends. A failure is yielded
// once, as the final element.
func (d *Decoder) Drain() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, ok, err := d.Advance()
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !ok || !yield(rec, nil) {
				return
			}
		}
	}
}

// State returns the current state.
func (d *Decoder) State() format.State {
	return d.state
}

// Offset returns the absolute offset of the next unread byte.
func (d *Decoder) Offset() int64 {
	return d.buf.Offset()
}

// Done reports whether the decoder reached the Terminal state.
func (d *Decoder) Done() bool {
	return d.state == format.StateTerminal
}

// Entries returns the header entries tokenized so far.
func (d *Decoder) Entries() []text.Entry {
	return d.tokenizer.Entries()
}

// BitDepth returns the raster bit depth, or 0 before it has been read.
func (d *Decoder) BitDepth() int {
	return d.bitDepth
}

// RasterEnd returns the raster end convention seen in the input, and false
// if the raster segment has not been terminated by an end token.
func (d *Decoder) RasterEnd() (format.RasterEnd, bool) {
	return d.rasterEnd, d.endSeen
}

// Trailer returns the bytes after the raster end token when WithKeepTrailer
// is enabled.
func (d *Decoder) Trailer() []byte {
	return d.trailer
}

// Release returns pooled memory. The Decoder must not be used afterwards.
func (d *Decoder) Release() {
	d.buf.Release()
}

// step performs one state transition. progressed is true when the state or
// the buffer changed, emitted when rec holds a record.
func (d *Decoder) step() (rec Record, emitted, progressed bool, err error) {
	switch d.state {
	case format.StateReadingText:
		return d.readText()
	case format.StateReadingBitDepth:
		return d.readBitDepth()
	case format.StateReadingRasterSegment:
		return d.readRasterSegment()
	case format.StateReadingRasterRow:
		return d.readRasterRow()
	default:
		return Record{}, false, false, nil
	}
}

func (d *Decoder) readText() (Record, bool, bool, error) {
	switch d.buf.Match(textSegmentEndToken) {
	case stream.MatchFull:
		d.state = format.StateReadingBitDepth
		return Record{}, false, true, nil
	case stream.MatchPartial:
		return Record{}, false, false, nil
	case stream.MatchNone:
	}

	offset := d.buf.Offset()
	line, ok := d.buf.TryReadUntil(lineEndToken)
	if !ok {
		return Record{}, false, false, nil
	}

	s := string(line[:len(line)-len(lineEndToken)])
	if err := d.tokenizer.Add(s); err != nil {
		return Record{}, false, false, d.fail(offset, fmt.Errorf("%w: %w", ErrMalformed, err))
	}

	return Record{Kind: format.KindTextLine, Offset: offset, Text: s}, true, true, nil
}

func (d *Decoder) readBitDepth() (Record, bool, bool, error) {
	offset := d.buf.Offset()
	b, ok := d.buf.TryReadLength(1)
	if !ok {
		return Record{}, false, false, nil
	}

	codec, err := raster.NewCodec(int(b[0]))
	if err != nil {
		return Record{}, false, false, d.fail(offset, err)
	}
	d.codec = codec
	d.bitDepth = codec.BitDepth()
	d.state = format.StateReadingRasterSegment

	return Record{Kind: format.KindBitDepth, Offset: offset, BitDepth: d.bitDepth}, true, true, nil
}

func (d *Decoder) readRasterSegment() (Record, bool, bool, error) {
	avail := d.buf.Len()
	if avail == 0 {
		return Record{}, false, false, nil
	}

	token := d.cfg.rasterEnd.Token()
	n := d.buf.TryReadExactMatch(token)

	switch {
	case n == len(token):
		d.terminate(d.cfg.rasterEnd)
		return Record{}, false, true, nil
	case n == 0:
		d.state = format.StateReadingRasterRow
		d.rowStart = d.buf.Offset()
		return Record{}, false, true, nil
	case n == avail && !d.inputEnded:
		return Record{}, false, false, nil
	case n == avail && d.cfg.rasterEnd == format.RasterEndQuad:
		return Record{}, false, false, d.fail(d.buf.Offset(), fmt.Errorf("%w: incomplete raster end token", ErrTruncated))
	case d.cfg.rasterEnd == format.RasterEndAuto:
		// Fewer than four zero bytes: the single byte form. The rest is trailer.
		d.buf.TryReadLength(1)
		d.terminate(format.RasterEndSingle)
		return Record{}, false, true, nil
	default:
		// Quad token expected but only a zero prefix is present. Let the row
		// reader report it at the exact offset.
		d.state = format.StateReadingRasterRow
		d.rowStart = d.buf.Offset()
		return Record{}, false, true, nil
	}
}

func (d *Decoder) readRasterRow() (Record, bool, bool, error) {
	if d.buf.Match(rowEndToken) == stream.MatchFull {
		return d.emitRow()
	}

	var status stream.ValueStatus
	d.values, status = d.buf.AppendValue(d.values, d.cfg.strictValues)

	switch status {
	case stream.ValueOK:
		d.valueEnds = append(d.valueEnds, len(d.values))
		return Record{}, false, true, nil
	case stream.ValueInterrupted:
		return Record{}, false, false, d.fail(d.buf.Offset(), fmt.Errorf("%w: zero byte inside variable-length value", ErrMalformed))
	default:
		return Record{}, false, false, nil
	}
}

func (d *Decoder) emitRow() (Record, bool, bool, error) {
	if len(d.valueEnds) == 0 {
		return Record{}, false, false, d.fail(d.rowStart, fmt.Errorf("%w: %w", ErrMalformed, raster.ErrEmptyRow))
	}

	values := make([][]byte, len(d.valueEnds))
	start := 0
	for i, end := range d.valueEnds {
		values[i] = d.values[start:end]
		start = end
	}

	row, err := raster.ParseRow(values, d.codec)
	if err != nil {
		return Record{}, false, false, d.fail(d.rowStart, fmt.Errorf("%w: %w", ErrMalformed, err))
	}

	rec := Record{Kind: format.KindRasterRow, Offset: d.rowStart, Row: row}
	d.values = d.values[:0]
	d.valueEnds = d.valueEnds[:0]
	d.state = format.StateReadingRasterSegment

	return rec, true, true, nil
}

func (d *Decoder) terminate(end format.RasterEnd) {
	d.state = format.StateTerminal
	d.rasterEnd = end
	d.endSeen = true

	rest := d.buf.Peek()
	d.keepTrailing(rest)
	d.buf.TryReadLength(len(rest))
}

func (d *Decoder) keepTrailing(b []byte) {
	if d.cfg.keepTrailer {
		d.trailer = append(d.trailer, b...)
	}
}

// finish runs once the input has ended and the decoder can make no more progress.
func (d *Decoder) finish() error {
	switch d.state {
	case format.StateTerminal:
		return nil
	case format.StateReadingText:
		// A header-only stream (a .BSB file) ends cleanly between lines.
		if d.buf.Len() == 0 {
			return nil
		}
	case format.StateReadingRasterSegment:
		// Missing end token, but the input stopped cleanly between rows.
		if d.buf.Len() == 0 {
			d.state = format.StateTerminal
			return nil
		}
	case format.StateReadingRasterRow:
		return d.fail(d.rowStart, fmt.Errorf("%w: row without terminator", ErrTruncated))
	case format.StateReadingBitDepth:
	}

	return d.fail(d.buf.Offset(), ErrTruncated)
}

func (d *Decoder) fail(offset int64, err error) error {
	return &DecodeError{Offset: offset, State: d.state, Err: err}
}

// DecodeAll decodes a complete in-memory chart.
//
// Returns the records decoded before any failure together with the failure.
func DecodeAll(data []byte, opts ...Option) ([]Record, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	if err := d.Push(data); err != nil {
		return nil, err
	}
	d.EndInput()

	var records []Record
	for rec, err := range d.Drain() {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// DecodeChunks decodes a chart delivered as a sequence of chunks.
// The records are identical to DecodeAll on the concatenated chunks.
func DecodeChunks(chunks iter.Seq[[]byte], opts ...Option) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		d, err := New(opts...)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer d.Release()

		for chunk := range chunks {
			if err := d.Push(chunk); err != nil {
				yield(Record{}, err)
				return
			}
			if !drainInto(d, yield) {
				return
			}
		}

		d.EndInput()
		drainInto(d, yield)
	}
}

// drainInto forwards records to yield and reports whether the caller wants more.
func drainInto(d *Decoder, yield func(Record, error) bool) bool {
	for rec, err := range d.Drain() {
		if !yield(rec, err) || err != nil {
			return false
		}
	}

	return true
}
