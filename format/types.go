package format

type (
	RecordKind      uint8
	State           uint8
	RasterEnd       uint8
	CompressionType uint8
)

const (
	KindTextLine  RecordKind = 0x1 // KindTextLine is one CRLF-terminated header line.
	KindBitDepth  RecordKind = 0x2 // KindBitDepth is the single bit-depth byte after the text segment.
	KindRasterRow RecordKind = 0x3 // KindRasterRow is one decoded, 0x00-terminated raster row.
)

const (
	StateReadingText          State = 0x1 // StateReadingText reads header lines until 0x1A 0x00.
	StateReadingBitDepth      State = 0x2 // StateReadingBitDepth reads the bit-depth byte.
	StateReadingRasterSegment State = 0x3 // StateReadingRasterSegment sits at a row boundary.
	StateReadingRasterRow     State = 0x4 // StateReadingRasterRow collects the values of one row.
	StateTerminal             State = 0x5 // StateTerminal is reached after the raster end token.
)

const (
	RasterEndAuto   RasterEnd = 0x0 // RasterEndAuto accepts one or four 0x00 bytes and reports which was seen.
	RasterEndSingle RasterEnd = 0x1 // RasterEndSingle is a single 0x00 byte (BSB 3.07 style).
	RasterEndQuad   RasterEnd = 0x4 // RasterEndQuad is four 0x00 bytes.
)

const (
	CompressionAuto CompressionType = 0x0 // CompressionAuto detects the archive type from magic bytes.
	CompressionNone CompressionType = 0x1 // CompressionNone represents a plain KAP stream.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents a Zstandard frame stream.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents an S2 (or Snappy framed) stream.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents an LZ4 frame stream.
)

func (k RecordKind) String() string {
	switch k {
	case KindTextLine:
		return "TextLine"
	case KindBitDepth:
		return "BitDepth"
	case KindRasterRow:
		return "RasterRow"
	default:
		return "Unknown"
	}
}

func (s State) String() string {
	switch s {
	case StateReadingText:
		return "ReadingText"
	case StateReadingBitDepth:
		return "ReadingBitDepth"
	case StateReadingRasterSegment:
		return "ReadingRasterSegment"
	case StateReadingRasterRow:
		return "ReadingRasterRow"
	case StateTerminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// Token returns the byte sequence matched for the raster end token.
// RasterEndAuto matches against the four byte form.
func (r RasterEnd) Token() []byte {
	if r == RasterEndSingle {
		return []byte{0x00}
	}

	return []byte{0x00, 0x00, 0x00, 0x00}
}

func (r RasterEnd) String() string {
	switch r {
	case RasterEndAuto:
		return "Auto"
	case RasterEndSingle:
		return "Single"
	case RasterEndQuad:
		return "Quad"
	default:
		return "Unknown"
	}
}

// ParseRasterEnd maps a lowercase name ("auto", "single", "quad") to a RasterEnd.
func ParseRasterEnd(name string) (RasterEnd, bool) {
	switch name {
	case "auto", "":
		return RasterEndAuto, true
	case "single":
		return RasterEndSingle, true
	case "quad":
		return RasterEndQuad, true
	default:
		return RasterEndAuto, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionAuto:
		return "Auto"
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a lowercase name ("auto", "none", "zstd", "s2", "lz4")
// to a CompressionType.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch name {
	case "auto", "":
		return CompressionAuto, true
	case "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return CompressionAuto, false
	}
}
