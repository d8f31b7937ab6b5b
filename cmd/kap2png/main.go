// kap2png converts a BSB/KAP raster chart into a PNG image.
//
// The chart is decoded as a stream: rows are painted into the image as they
// are read, so only the image itself is held in memory. Compressed charts
// (zstd, S2, LZ4) are detected by their magic bytes.
package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/arloliu/bsbkap"
	"github.com/arloliu/bsbkap/decoder"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/hash"
	"github.com/arloliu/bsbkap/metadata"
	"github.com/arloliu/bsbkap/raster"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type params struct {
	compression string
	rasterEnd   string
	palette     string
	strict      bool
	verbose     bool
	input       string
	output      string
}

func run(args []string, stderr io.Writer) error {
	var p params

	flagSet := pflag.NewFlagSet("kap2png", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&p.compression, "compression", "auto", "input compression: auto, none, zstd, s2 or lz4")
	flagSet.StringVar(&p.rasterEnd, "raster-end", "auto", "raster end token: auto, single or quad")
	flagSet.StringVar(&p.palette, "palette", "RGB", "palette entry type to paint with: RGB, DAY, DSK, NGT, NGR, GRY, PRC or PRG")
	flagSet.BoolVar(&p.strict, "strict", false, "reject 0x00 bytes inside variable-length values")
	flagSet.BoolVarP(&p.verbose, "verbose", "v", false, "log decode progress and statistics")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  kap2png [flags] input.kap output.png\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 2 {
		flagSet.Usage()
		return fmt.Errorf("expected 2 arguments, got %d", flagSet.NArg())
	}
	p.input, p.output = flagSet.Arg(0), flagSet.Arg(1)

	level := slog.LevelWarn
	if p.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := p.readerOptions()
	if err != nil {
		return err
	}

	return convert(logger, p, opts)
}

func (p params) readerOptions() ([]bsbkap.Option, error) {
	compression, ok := format.ParseCompressionType(strings.ToLower(p.compression))
	if !ok {
		return nil, fmt.Errorf("unknown compression %q", p.compression)
	}
	rasterEnd, ok := format.ParseRasterEnd(strings.ToLower(p.rasterEnd))
	if !ok {
		return nil, fmt.Errorf("unknown raster end %q", p.rasterEnd)
	}

	return []bsbkap.Option{
		bsbkap.WithCompression(compression),
		bsbkap.WithDecoderOptions(
			decoder.WithRasterEnd(rasterEnd),
			decoder.WithStrictValues(p.strict),
		),
	}, nil
}

func convert(logger *slog.Logger, p params, opts []bsbkap.Option) error {
	in, err := os.Open(p.input)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := bsbkap.NewReader(in, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	var (
		cv      canvas
		stats   raster.Stats
		pending []raster.Row
	)
	for rec, err := range r.Records() {
		if err != nil {
			return fmt.Errorf("decode %s: %w", p.input, err)
		}

		switch rec.Kind {
		case format.KindTextLine:
			logger.Debug("header line", "offset", rec.Offset, "text", rec.Text)
		case format.KindBitDepth:
			md := metadata.Parse(r.Decoder().Entries())
			c, cerr := newCanvas(md, strings.ToUpper(p.palette))
			if cerr != nil {
				return cerr
			}
			cv = c
			logger.Debug("raster start", "name", md.Name, "bit_depth", rec.BitDepth, "size_known", cv.img != nil)
		case format.KindRasterRow:
			if cv.img == nil {
				// No RA= in the header: the size is known only at the end.
				pending = append(pending, rec.Row)
				continue
			}
			stats.Add(raster.WriteSegment([]raster.Row{rec.Row}, cv.palette, cv.img.Pix, cv.img.Rect.Dx()))
		}
	}

	if cv.img == nil {
		width, height := raster.InferSize(pending)
		if width <= 0 || height <= 0 {
			return fmt.Errorf("%s: %w", p.input, bsbkap.ErrNoRaster)
		}
		if err := raster.CheckSize(width, height); err != nil {
			return fmt.Errorf("%s: %w", p.input, err)
		}
		cv.img = image.NewNRGBA(image.Rect(0, 0, width, height))
		stats.Add(raster.WriteSegment(pending, cv.palette, cv.img.Pix, width))
	}

	end, terminated := r.Decoder().RasterEnd()
	logger.Debug("raster done",
		"rows", stats.Rows,
		"runs", stats.Runs,
		"pixels", stats.Pixels,
		"raster_end", end.String(),
		"terminated", terminated,
		"pixels_xxh64", fmt.Sprintf("%016x", hash.Pixels(cv.img.Pix)),
	)
	if stats.FallbackRuns > 0 || stats.TruncatedPixels > 0 || stats.SkippedRows > 0 {
		logger.Warn("raster does not match header",
			"fallback_runs", stats.FallbackRuns,
			"truncated_pixels", stats.TruncatedPixels,
			"skipped_rows", stats.SkippedRows,
		)
	}

	return writePNG(p.output, cv.img)
}

type canvas struct {
	img     *image.NRGBA
	palette raster.Palette
}

func newCanvas(md metadata.Metadata, paletteType string) (canvas, error) {
	var c canvas

	switch paletteType {
	case metadata.PaletteType:
		c.palette = md.Palette
	default:
		p, ok := md.AltPalettes[paletteType]
		if !ok {
			return c, fmt.Errorf("chart has no %s palette", paletteType)
		}
		c.palette = p
	}

	if md.Size != nil && md.Size.Width > 0 && md.Size.Height > 0 {
		if err := raster.CheckSize(md.Size.Width, md.Size.Height); err != nil {
			return c, err
		}
		c.img = image.NewNRGBA(image.Rect(0, 0, md.Size.Width, md.Size.Height))
	}

	return c, nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return out.Close()
}
