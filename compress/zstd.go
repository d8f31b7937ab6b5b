package compress

// ZstdCompressor provides Zstandard compression.
//
// Raster charts compress well with it: runs of the same colour repeat across
// neighbouring rows, and the header text is highly redundant.
//
// Two implementations exist. The default is pure Go (klauspost/compress).
// Building with both cgo and the "gozstd" tag selects the libzstd binding
// instead. Both produce and read standard zstd frames.
type ZstdCompressor struct{}

var _ StreamCodec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
