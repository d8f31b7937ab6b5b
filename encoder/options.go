package encoder

import (
	"fmt"

	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/options"
)

type config struct {
	rasterEnd   format.RasterEnd
	rowIndex    bool
	compression format.CompressionType
}

// Option configures an Encoder.
type Option = options.Option[*config]

func defaultConfig() *config {
	return &config{
		rasterEnd:   format.RasterEndQuad,
		compression: format.CompressionNone,
	}
}

// WithRasterEnd selects the token written after the last row: four 0x00
// bytes (the default) or the single 0x00 of BSB 3.07. RasterEndAuto only
// makes sense when reading and is rejected.
func WithRasterEnd(end format.RasterEnd) Option {
	return options.New(func(c *config) error {
		switch end {
		case format.RasterEndSingle, format.RasterEndQuad:
			c.rasterEnd = end
			return nil
		default:
			return fmt.Errorf("invalid raster end token for encoding: %s", end)
		}
	})
}

// WithRowIndex appends the row index table after the raster end token: the
// big-endian uint32 file offset of every row, in the order the rows were
// added, then the offset of the table itself.
func WithRowIndex(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.rowIndex = enabled
	})
}

// WithCompression compresses the finished chart as a whole. The result is a
// zstd, S2 or LZ4 frame that the chart reader detects by its magic bytes.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(c *config) error {
		switch compression {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = compression
			return nil
		default:
			return fmt.Errorf("invalid compression for encoding: %s", compression)
		}
	})
}
