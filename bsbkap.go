// Package bsbkap decodes and encodes BSB/KAP raster nautical charts.
//
// A KAP file is an ASCII header of typed entries (chart name, raster size,
// palette, border polygon, ...) followed by a run-length encoded raster of
// palette indices. This package wraps the streaming decoder in the decoder
// package with whole-chart helpers.
//
// # Basic Usage
//
// Decoding a chart file and rendering it:
//
//	f, _ := os.Open("18773_1.kap")
//	defer f.Close()
//
//	chart, err := bsbkap.DecodeReader(f)
//	if err != nil {
//	    return err
//	}
//
//	md := chart.Metadata()
//	fmt.Println(md.Name, md.Size)
//
//	img, stats, err := chart.Render()
//
// Compressed charts (.kap.zst, .kap.lz4, S2 streams) are detected by their
// magic bytes and inflated on the fly.
//
// Streaming rows without keeping the raster in memory:
//
//	r, _ := bsbkap.NewReader(f)
//	defer r.Close()
//	for rec, err := range r.Records() {
//	    ...
//	}
//
// # Package Structure
//
// The top-level functions are convenience wrappers. For fine-grained control
// use the decoder, encoder, metadata and raster packages directly.
package bsbkap

import (
	"bytes"
	"fmt"
	"io"
	"iter"

	"github.com/arloliu/bsbkap/compress"
	"github.com/arloliu/bsbkap/decoder"
	"github.com/arloliu/bsbkap/encoder"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/text"
)

// Decode decodes a chart held entirely in memory.
//
// Parameters:
//   - data: the chart bytes, plain or compressed
//   - opts: WithCompression, WithDecoderOptions
//
// Returns:
//   - *Chart: the decoded chart; on failure, the part decoded before it
//   - error: a *decoder.DecodeError or a decompression error
func Decode(data []byte, opts ...Option) (*Chart, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	data, err = decompress(data, cfg.compression)
	if err != nil {
		return nil, err
	}

	d, err := decoder.New(cfg.decoderOptions()...)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	chart := &Chart{}
	if err := d.Push(data); err != nil {
		return chart, err
	}
	d.EndInput()

	return chart, chart.collect(d, d.Drain())
}

// DecodeReader decodes a chart from r, reading it in pooled chunks. The
// whole file is never held in memory, only the decoded rows.
//
// Returns the part decoded before a failure together with the failure.
func DecodeReader(r io.Reader, opts ...Option) (*Chart, error) {
	cr, err := NewReader(r, opts...)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	chart := &Chart{}

	return chart, chart.collect(cr.Decoder(), cr.Records())
}

// Encode writes c as a KAP byte stream.
func Encode(c *Chart, opts ...encoder.Option) ([]byte, error) {
	return encoder.Encode(c.Text, c.BitDepth, c.Rows, opts...)
}

// EncodeTo writes c as a KAP byte stream to w.
func EncodeTo(w io.Writer, c *Chart, opts ...encoder.Option) error {
	_, err := encoder.EncodeTo(w, c.Text, c.BitDepth, c.Rows, opts...)
	return err
}

// collect appends records to c and copies the decoder's end state.
func (c *Chart) collect(d *decoder.Decoder, records iter.Seq2[decoder.Record, error]) error {
	var failure error
	for rec, err := range records {
		if err != nil {
			failure = err
			break
		}
		c.add(rec)
	}

	c.Text = append([]text.Entry(nil), d.Entries()...)
	c.RasterEnd, c.Terminated = d.RasterEnd()
	if tr := d.Trailer(); len(tr) > 0 {
		c.Trailer = bytes.Clone(tr)
	}

	return failure
}

func (c *Chart) add(rec decoder.Record) {
	switch rec.Kind {
	case format.KindTextLine:
		c.Lines = append(c.Lines, rec.Text)
	case format.KindBitDepth:
		c.BitDepth = rec.BitDepth
	case format.KindRasterRow:
		c.Rows = append(c.Rows, rec.Row)
	}
}

func decompress(data []byte, compression format.CompressionType) ([]byte, error) {
	if compression == format.CompressionAuto {
		compression = compress.Detect(data)
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s chart: %w", compression, err)
	}

	return out, nil
}
