package bsbkap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/arloliu/bsbkap/compress"
	"github.com/arloliu/bsbkap/decoder"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/pool"
)

// Reader streams the records of one chart from an io.Reader.
//
// Note: A Reader is NOT thread-safe and its Records sequence can be ranged
// over once.
type Reader struct {
	src   io.ReadCloser
	dec   *decoder.Decoder
	chunk *pool.ByteBuffer
	size  int
}

// NewReader prepares to decode a chart from r. With the default
// format.CompressionAuto it peeks at the first bytes of r to detect a
// compressed chart.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	compression := cfg.compression
	if compression == format.CompressionAuto {
		br := bufio.NewReaderSize(r, max(cfg.chunkSize, compress.MagicLen))
		prefix, err := br.Peek(compress.MagicLen)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read chart prefix: %w", err)
		}
		compression = compress.Detect(prefix)
		r = br
	}

	src, err := compress.NewReader(r, compression)
	if err != nil {
		return nil, err
	}

	dec, err := decoder.New(cfg.decoderOptions()...)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	chunk := pool.GetChunkBuffer()
	chunk.Grow(cfg.chunkSize)

	return &Reader{src: src, dec: dec, chunk: chunk, size: cfg.chunkSize}, nil
}

// Decoder returns the underlying decoder, for its header entries, trailer
// and end state. It is valid until Close.
func (r *Reader) Decoder() *decoder.Decoder {
	return r.dec
}

// Records yields decoded records until the end of the chart. A read or
// decode failure is yielded once, as the final element.
func (r *Reader) Records() iter.Seq2[decoder.Record, error] {
	return func(yield func(decoder.Record, error) bool) {
		buf := r.chunk.B[:r.size]

		for {
			n, err := r.src.Read(buf)
			if n > 0 {
				if perr := r.dec.Push(buf[:n]); perr != nil {
					yield(decoder.Record{}, perr)
					return
				}
				if !r.drain(yield) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(decoder.Record{}, fmt.Errorf("read chart: %w", err))
				return
			}
		}

		r.dec.EndInput()
		r.drain(yield)
	}
}

func (r *Reader) drain(yield func(decoder.Record, error) bool) bool {
	for rec, err := range r.dec.Drain() {
		if !yield(rec, err) || err != nil {
			return false
		}
	}

	return true
}

// Close releases the decompressor and pooled buffers. It does not close the
// io.Reader given to NewReader.
func (r *Reader) Close() error {
	if r.chunk == nil {
		return nil
	}

	err := r.src.Close()
	r.dec.Release()
	pool.PutChunkBuffer(r.chunk)
	r.chunk = nil

	return err
}
