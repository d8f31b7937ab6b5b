package decoder

import (
	"fmt"

	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/options"
)

type config struct {
	rasterEnd    format.RasterEnd
	strictValues bool
	keepTrailer  bool
}

// Option configures a Decoder.
type Option = options.Option[*config]

func defaultConfig() *config {
	return &config{rasterEnd: format.RasterEndAuto}
}

// WithRasterEnd selects the raster segment end token.
//
// Producers disagree on it: some write four 0x00 bytes, BSB 3.07 writes only
// the single 0x00 that is also the first byte of the row index table. The
// default, format.RasterEndAuto, accepts both and reports the convention it
// saw through Decoder.RasterEnd.
func WithRasterEnd(end format.RasterEnd) Option {
	return options.New(func(c *config) error {
		switch end {
		case format.RasterEndAuto, format.RasterEndSingle, format.RasterEndQuad:
			c.rasterEnd = end
			return nil
		default:
			return fmt.Errorf("invalid raster end token: %v", end)
		}
	})
}

// WithStrictValues makes a 0x00 byte anywhere inside a variable-length value
// a decode failure. By default 0x00 is only a delimiter where a new value
// would start, so that row numbers and run lengths whose last 7-bit group is
// zero (row 128, for example) decode as data.
func WithStrictValues(strict bool) Option {
	return options.NoError(func(c *config) {
		c.strictValues = strict
	})
}

// WithKeepTrailer keeps the bytes that follow the raster end token (normally
// the row index table) available through Decoder.Trailer.
func WithKeepTrailer(keep bool) Option {
	return options.NoError(func(c *config) {
		c.keepTrailer = keep
	})
}
