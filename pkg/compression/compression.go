// Package compression wraps the codecs used to shrink index segment records
// on disk. The index store (pkg/index) gob-encodes each postings record,
// then passes the bytes through a Compressor before writing them to their
// file region, and through the inverse on read.
package compression

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Algorithm identifies a codec usable for a segment file.
type Algorithm int

const (
	// AlgorithmNone stores records uncompressed.
	AlgorithmNone Algorithm = iota
	// AlgorithmSnappy favors decode speed over ratio.
	AlgorithmSnappy
	// AlgorithmZstd is the default: good ratio at low decode cost, which
	// matters for StreamTerm's per-posting-list decompression.
	AlgorithmZstd
	AlgorithmGzip
	AlgorithmZlib
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmSnappy:
		return "snappy"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmGzip:
		return "gzip"
	case AlgorithmZlib:
		return "zlib"
	default:
		return "unknown"
	}
}

// Config selects a codec and its compression level.
type Config struct {
	Algorithm Algorithm
	Level     int
}

// DefaultConfig returns the index store's default: Zstd at a balanced level.
func DefaultConfig() *Config {
	return &Config{Algorithm: AlgorithmZstd, Level: 3}
}

// SnappyConfig returns configuration for Snappy.
func SnappyConfig() *Config {
	return &Config{Algorithm: AlgorithmSnappy}
}

// GzipConfig returns configuration for Gzip at the given level.
func GzipConfig(level int) *Config {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &Config{Algorithm: AlgorithmGzip, Level: level}
}

// ZstdConfig returns configuration for Zstd at the given level (1-19).
func ZstdConfig(level int) *Config {
	if level < 1 || level > 19 {
		level = 3
	}
	return &Config{Algorithm: AlgorithmZstd, Level: level}
}

// Compressor compresses and decompresses segment records under one codec.
// Not safe for concurrent use: the index store serializes writes with a
// mutex and gives each reader its own Compressor.
type Compressor struct {
	config  *Config
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
	scratch *bytes.Buffer
}

// NewCompressor builds a Compressor for config, or the default if nil.
func NewCompressor(config *Config) (*Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Compressor{
		config:  config,
		scratch: new(bytes.Buffer),
	}

	if config.Algorithm == AlgorithmZstd {
		var err error
		encLevel := zstd.EncoderLevelFromZstd(config.Level)
		c.zstdEnc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
		if err != nil {
			return nil, fmt.Errorf("compression: create zstd encoder: %w", err)
		}
		c.zstdDec, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("compression: create zstd decoder: %w", err)
		}
	}

	return c, nil
}

// Compress returns data encoded under the configured algorithm.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch c.config.Algorithm {
	case AlgorithmNone:
		return data, nil

	case AlgorithmSnappy:
		return snappy.Encode(nil, data), nil

	case AlgorithmZstd:
		return c.zstdEnc.EncodeAll(data, nil), nil

	case AlgorithmGzip:
		c.scratch.Reset()
		writer, err := gzip.NewWriterLevel(c.scratch, c.config.Level)
		if err != nil {
			return nil, fmt.Errorf("compression: create gzip writer: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("compression: write gzip data: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("compression: close gzip writer: %w", err)
		}
		return append([]byte(nil), c.scratch.Bytes()...), nil

	case AlgorithmZlib:
		c.scratch.Reset()
		writer, err := zlib.NewWriterLevel(c.scratch, c.config.Level)
		if err != nil {
			return nil, fmt.Errorf("compression: create zlib writer: %w", err)
		}
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("compression: write zlib data: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("compression: close zlib writer: %w", err)
		}
		return append([]byte(nil), c.scratch.Bytes()...), nil

	default:
		return nil, fmt.Errorf("compression: unsupported algorithm %v", c.config.Algorithm)
	}
}

// Decompress reverses Compress.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	switch c.config.Algorithm {
	case AlgorithmNone:
		return data, nil

	case AlgorithmSnappy:
		decoded, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("compression: decode snappy: %w", err)
		}
		return decoded, nil

	case AlgorithmZstd:
		decoded, err := c.zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("compression: decode zstd: %w", err)
		}
		return decoded, nil

	case AlgorithmGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compression: create gzip reader: %w", err)
		}
		defer reader.Close()

		c.scratch.Reset()
		if _, err := io.Copy(c.scratch, reader); err != nil {
			return nil, fmt.Errorf("compression: read gzip data: %w", err)
		}
		return append([]byte(nil), c.scratch.Bytes()...), nil

	case AlgorithmZlib:
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compression: create zlib reader: %w", err)
		}
		defer reader.Close()

		c.scratch.Reset()
		if _, err := io.Copy(c.scratch, reader); err != nil {
			return nil, fmt.Errorf("compression: read zlib data: %w", err)
		}
		return append([]byte(nil), c.scratch.Bytes()...), nil

	default:
		return nil, fmt.Errorf("compression: unsupported algorithm %v", c.config.Algorithm)
	}
}

// Close releases the zstd encoder/decoder goroutine pools, if any.
func (c *Compressor) Close() error {
	if c.zstdEnc != nil {
		c.zstdEnc.Close()
	}
	if c.zstdDec != nil {
		c.zstdDec.Close()
	}
	return nil
}
