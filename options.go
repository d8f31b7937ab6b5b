package bsbkap

import (
	"fmt"

	"github.com/arloliu/bsbkap/decoder"
	"github.com/arloliu/bsbkap/format"
	"github.com/arloliu/bsbkap/internal/options"
	"github.com/arloliu/bsbkap/internal/pool"
)

type config struct {
	decoderOpts []decoder.Option
	compression format.CompressionType
	chunkSize   int
}

// Option configures Decode, DecodeReader and NewReader.
type Option = options.Option[*config]

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		compression: format.CompressionAuto,
		chunkSize:   pool.ChunkBufferDefaultSize,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) decoderOptions() []decoder.Option {
	return c.decoderOpts
}

// WithDecoderOptions passes options through to the chart decoder.
func WithDecoderOptions(opts ...decoder.Option) Option {
	return options.NoError(func(c *config) {
		c.decoderOpts = append(c.decoderOpts, opts...)
	})
}

// WithCompression sets the compression of the input. The default,
// format.CompressionAuto, detects it from the leading bytes.
func WithCompression(compression format.CompressionType) Option {
	return options.New(func(c *config) error {
		switch compression {
		case format.CompressionAuto, format.CompressionNone, format.CompressionZstd,
			format.CompressionS2, format.CompressionLZ4:
			c.compression = compression
			return nil
		default:
			return fmt.Errorf("invalid compression type: %s", compression)
		}
	})
}

// WithChunkSize sets how many bytes NewReader reads per chunk.
func WithChunkSize(size int) Option {
	return options.New(func(c *config) error {
		if size <= 0 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		c.chunkSize = size

		return nil
	})
}
