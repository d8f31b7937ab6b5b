package compress

import (
	"io"
	"sync"

	"github.com/klauspost/compress/s2"
)

// s2ReaderPool pools stream readers; s2.Reader keeps a decode buffer across Reset.
var s2ReaderPool = sync.Pool{
	New: func() any {
		return s2.NewReader(nil)
	},
}

// S2Compressor uses the S2 stream format, which also reads Snappy framed streams.
type S2Compressor struct{}

var _ StreamCodec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data into a single S2 stream.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return compressWith(data, c.NewWriter)
}

// Decompress decompresses an S2 or Snappy stream.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return decompressWith(data, c.NewReader)
}

// NewReader returns a pooled S2 stream reader over r.
func (c S2Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	sr, _ := s2ReaderPool.Get().(*s2.Reader)
	sr.Reset(r)

	return &readCloser{Reader: sr, release: func() {
		sr.Reset(nil)
		s2ReaderPool.Put(sr)
	}}, nil
}

// NewWriter returns an S2 stream writer into w.
func (c S2Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return s2.NewWriter(w, s2.WriterConcurrency(1)), nil
}
