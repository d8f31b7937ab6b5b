// Package hash computes xxHash64 digests over decoded chart data.
//
// Digests are used to compare decode results without keeping two copies of a
// raster around: two decodes of the same chart, however it was chunked, must
// produce the same row digest, and two renders must produce the same pixel digest.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest accumulates integers into an xxHash64 state.
type Digest struct {
	d       *xxhash.Digest
	scratch [binary.MaxVarintLen64]byte
}

// NewDigest returns an empty Digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// WriteInt mixes v into the digest using its varint form, so small values stay cheap.
func (d *Digest) WriteInt(v int) {
	n := binary.PutVarint(d.scratch[:], int64(v))
	_, _ = d.d.Write(d.scratch[:n])
}

// WriteString mixes s into the digest, prefixed with its length.
func (d *Digest) WriteString(s string) {
	d.WriteInt(len(s))
	_, _ = d.d.WriteString(s)
}

// Sum64 returns the current digest value.
func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}

// Pixels returns the xxHash64 of a framebuffer.
func Pixels(pix []byte) uint64 {
	return xxhash.Sum64(pix)
}
