package decoder

import (
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/raster"
)

// Record is one structural unit decoded from the chart stream. Only the
// field matching Kind is set.
type Record struct {
	Kind format.RecordKind
	// Offset is the absolute stream offset of the record's first byte.
	Offset int64

	// Text is a header line without its CRLF terminator (KindTextLine).
	Text string
	// BitDepth is the raster bit depth (KindBitDepth).
	BitDepth int
	// Row is a decoded raster row (KindRasterRow).
	Row raster.Row
}
