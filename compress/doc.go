// Package compress provides the codecs used for compressed chart files.
//
// Chart archives often ship KAP files compressed as a whole (.kap.zst,
// .kap.lz4, .kap.sz). This package recognizes those files by their frame
// magic and wraps them so the chart decoder can consume the inflated bytes
// chunk by chunk.
//
// # Supported Algorithms
//
//   - None: plain .kap files (format.CompressionNone)
//   - Zstd: zstd frames, magic 28 B5 2F FD (format.CompressionZstd)
//   - S2: S2 streams, magic FF 06 00 00 "S2sTwO", also Snappy framed
//     streams, magic FF 06 00 00 "sNaPpY" (format.CompressionS2)
//   - LZ4: LZ4 frames, magic 04 22 4D 18 (format.CompressionLZ4)
//
// # Usage
//
// Whole-buffer:
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	packed, _ := codec.Compress(kap)
//	kap, _ = codec.Decompress(packed)
//
// Streaming with detection:
//
//	br := bufio.NewReader(f)
//	prefix, _ := br.Peek(compress.MagicLen)
//	r, err := compress.NewReader(br, compress.Detect(prefix))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// # Memory Management
//
// Zstd decoders and encoders, S2 readers and LZ4 writers are pooled. Close
// on a reader or writer returned by this package hands the pooled instance
// back; it never closes the wrapped reader or writer.
//
// # Thread Safety
//
// The codecs returned by GetCodec are stateless and safe for concurrent use.
// A reader or writer returned by NewReader or NewWriter belongs to one
// goroutine.
//
// # Build Tags
//
// Zstd is implemented in pure Go by default. Building with cgo enabled and
// the "gozstd" tag switches to the libzstd binding.
package compress
