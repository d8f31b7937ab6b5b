// Package endian provides the byte order engines used for the fixed-width
// parts of a KAP file.
//
// Almost all of a KAP file is ASCII text or base-128 variable-length values,
// which have no byte order. The exception is the row index table that follows
// the raster segment: every entry is a 32-bit big-endian file offset.
//
//	engine := endian.GetBigEndianEngine()
//	buf = engine.AppendUint32(buf, uint32(rowOffset))
//
// # Thread Safety
//
// The returned EndianEngine instances are immutable and stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetBigEndianEngine returns the big-endian engine used by the KAP row index.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
