package compress

import (
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4WriterPool pools frame writers. lz4.Writer keeps its block buffers across Reset.
var lz4WriterPool = sync.Pool{
	New: func() any {
		return lz4.NewWriter(nil)
	},
}

// LZ4Compressor uses the LZ4 frame format.
type LZ4Compressor struct{}

var _ StreamCodec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
//
// Returns:
//   - LZ4Compressor: New LZ4 compressor instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data into one LZ4 frame.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Compressed frame (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return compressWith(data, c.NewWriter)
}

// Decompress decompresses an LZ4 frame. The frame header carries its own
// block sizes, so no output size guess is needed.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return decompressWith(data, c.NewReader)
}

// NewReader returns an LZ4 frame reader over r.
func (c LZ4Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// NewWriter returns a pooled LZ4 frame writer into w. Close writes the frame
// end mark and returns the writer to the pool.
func (c LZ4Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	lw, _ := lz4WriterPool.Get().(*lz4.Writer)
	lw.Reset(w)

	return &lz4PooledWriter{Writer: lw}, nil
}

type lz4PooledWriter struct {
	*lz4.Writer
}

func (w *lz4PooledWriter) Close() error {
	if w.Writer == nil {
		return nil
	}

	err := w.Writer.Close()
	w.Writer.Reset(nil)
	lz4WriterPool.Put(w.Writer)
	w.Writer = nil

	return err
}
