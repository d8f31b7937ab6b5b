package bsbkap

import (
	"errors"
	"image"

	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/hash"
	"github.com/arloliu/bsbkap/metadata"
	"github.com/arloliu/bsbkap/raster"
	"github.com/arloliu/bsbkap/text"
)

// ErrNoRaster reports a Render of a chart with no usable raster size.
var ErrNoRaster = errors.New("chart has no raster to render")

// Chart is a decoded chart.
type Chart struct {
	// Lines holds the physical header lines in file order.
	Lines []string
	// Text holds the header entries built from Lines.
	Text []text.Entry
	// BitDepth is 0 when the input ended before the bit depth byte.
	BitDepth int
	// Rows holds the raster rows in file order.
	Rows []raster.Row
	// RasterEnd is the end token convention seen. Valid only if Terminated.
	RasterEnd format.RasterEnd
	// Terminated reports whether the raster segment ended with an end token.
	Terminated bool
	// Trailer holds the bytes after the end token, when the decoder was
	// configured with decoder.WithKeepTrailer.
	Trailer []byte
}

// Metadata extracts well-known properties from the header.
func (c *Chart) Metadata() metadata.Metadata {
	return metadata.Parse(c.Text)
}

// Size returns the raster size: RA= from the header when present, otherwise
// the extent of the decoded rows.
func (c *Chart) Size() (width, height int) {
	if md := c.Metadata(); md.Size != nil {
		return md.Size.Width, md.Size.Height
	}

	return raster.InferSize(c.Rows)
}

// Render paints the raster with the chart's RGB palette.
//
// Returns:
//   - *image.NRGBA: the chart image
//   - raster.Stats: painting counters, see raster.WriteSegment
//   - error: ErrNoRaster when the size is zero, raster.ErrFramebufferTooLarge
//     when it exceeds raster.MaxFramebufferPixels
func (c *Chart) Render() (*image.NRGBA, raster.Stats, error) {
	return c.RenderPalette(c.Metadata().Palette)
}

// RenderPalette paints the raster with palette, for example one of
// Metadata().AltPalettes.
func (c *Chart) RenderPalette(palette raster.Palette) (*image.NRGBA, raster.Stats, error) {
	width, height := c.Size()
	if width <= 0 || height <= 0 {
		return nil, raster.Stats{}, ErrNoRaster
	}
	if err := raster.CheckSize(width, height); err != nil {
		return nil, raster.Stats{}, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	stats := raster.WriteSegment(c.Rows, palette, img.Pix, width)

	return img, stats, nil
}

// Digest returns an xxHash64 digest of the header lines, the bit depth and
// the rows. Two decodes of the same chart have the same digest however the
// input was chunked or compressed.
func (c *Chart) Digest() uint64 {
	d := c.rowsDigest()
	d.WriteInt(c.BitDepth)
	d.WriteInt(len(c.Lines))
	for _, line := range c.Lines {
		d.WriteString(line)
	}

	return d.Sum64()
}

func (c *Chart) rowsDigest() *hash.Digest {
	d := hash.NewDigest()
	d.WriteInt(len(c.Rows))
	for _, row := range c.Rows {
		d.WriteInt(row.Number)
		d.WriteInt(len(row.Runs))
		for _, run := range row.Runs {
			d.WriteInt(run.ColorIndex)
			d.WriteInt(run.Length)
		}
	}

	return d
}
