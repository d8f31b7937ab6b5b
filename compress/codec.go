package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/bsbkap/format"
)

// Compressor compresses a whole in-memory chart.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller, except for
//     the no-op codec which returns its input
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor.
//
// Thread Safety: implementations in this package are safe for concurrent use.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// StreamCodec wraps readers and writers, so that a compressed chart can be
// decoded chunk by chunk without inflating the whole file first.
//
// Both Compress output and NewWriter output use the self-describing frame
// format of the algorithm, so either can be read back by the other side and
// recognized by Detect.
type StreamCodec interface {
	Codec
	// NewReader returns a reader that decompresses r. Close releases pooled
	// resources; it does not close r.
	NewReader(r io.Reader) (io.ReadCloser, error)
	// NewWriter returns a writer that compresses into w. Close flushes the
	// final frame; it does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

var builtinCodecs = map[format.CompressionType]StreamCodec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in codec for the specified compression type.
//
// Parameters:
//   - compressionType: None, Zstd, S2 or LZ4. Auto is not a codec; use Detect.
//
// Returns:
//   - StreamCodec: shared, stateless codec instance
//   - error: unsupported compression type
func GetCodec(compressionType format.CompressionType) (StreamCodec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// Frame magic numbers.
var (
	zstdMagic       = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic        = []byte{0x04, 0x22, 0x4D, 0x18}
	s2StreamMagic   = []byte{0xFF, 0x06, 0x00, 0x00, 'S', '2', 's', 'T', 'w', 'O'}
	snappyStreamMag = []byte{0xFF, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

// MagicLen is the number of leading bytes Detect needs to recognize every
// supported format.
const MagicLen = 10

// Detect identifies the compression format from the first bytes of a file.
// A BSB/KAP chart starts with ASCII header text, which matches none of the
// magic numbers, so uncompressed input yields format.CompressionNone.
func Detect(prefix []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(prefix, lz4Magic):
		return format.CompressionLZ4
	case bytes.HasPrefix(prefix, s2StreamMagic), bytes.HasPrefix(prefix, snappyStreamMag):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// NewReader wraps r with the decompressor for compressionType. Auto is not
// accepted here because it needs to peek at r; callers that want detection
// peek MagicLen bytes themselves and pass Detect's result.
func NewReader(r io.Reader, compressionType format.CompressionType) (io.ReadCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewReader(r)
}

// NewWriter wraps w with the compressor for compressionType.
func NewWriter(w io.Writer, compressionType format.CompressionType) (io.WriteCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewWriter(w)
}

// DecompressAuto detects the format of data and decompresses it.
func DecompressAuto(data []byte) ([]byte, format.CompressionType, error) {
	compressionType := Detect(data)
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, compressionType, err
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, compressionType, err
	}

	return out, compressionType, nil
}

// readCloser adapts a reader with a release hook to io.ReadCloser.
type readCloser struct {
	io.Reader
	release func()
}

func (rc *readCloser) Close() error {
	if rc.release != nil {
		rc.release()
		rc.release = nil
	}

	return nil
}

// compressWith runs data through a stream writer into a new slice.
func compressWith(data []byte, newWriter func(io.Writer) (io.WriteCloser, error)) ([]byte, error) {
	var buf bytes.Buffer
	w, err := newWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompressWith reads a whole stream produced by newReader.
func decompressWith(data []byte, newReader func(io.Reader) (io.ReadCloser, error)) ([]byte, error) {
	r, err := newReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
