// Package stream implements the streaming compressor: a single-owner,
// per-column state machine that ingests values one at a time via Feed and
// materializes the encoded buffer in one shot at Finalize, mirroring
// tcompression.c's SCompressor/tCompressorCreate/tCompress/tCompGen family.
package stream

import (
	"github.com/skyformat99/tscompress/format"
	"github.com/skyformat99/tscompress/internal/options"
	"github.com/skyformat99/tscompress/internal/pool"
)

// defaultInitialCapacity mirrors the source's tCompressorCreate, which
// preallocates aBuf[0] at 1024 bytes regardless of column type.
const defaultInitialCapacity = 1024

// Option configures a Compressor at construction time.
type Option = options.Option[*Compressor]

// WithInitialCapacity sets the initial capacity of the primary growable
// buffer. Ignored once WithBuffer supplies an explicit buffer.
func WithInitialCapacity(n int) Option {
	return options.NoError(func(c *Compressor) {
		c.initialCapacity = n
	})
}

// WithBuffer supplies a caller-owned primary buffer and disables automatic
// growth: Feed returns an out-of-memory error once buf's capacity is
// exhausted instead of reallocating, mirroring the source's autoAlloc=false
// mode.
func WithBuffer(buf *pool.ByteBuffer) Option {
	return options.NoError(func(c *Compressor) {
		c.primary = buf
		c.autoAlloc = false
	})
}

// WithCompression selects the second-stage codec Finalize uses when Reset
// is called with TwoStage. Defaults to format.CompressionLZ4, matching
// tCompGen. The chosen algorithm is not self-describing in the output (the
// single mode byte only distinguishes compressed-with-ct from verbatim,
// exactly as tCompGen's does for LZ4) — the caller must remember which
// compression type it configured in order to decode.
func WithCompression(ct format.CompressionType) Option {
	return options.NoError(func(c *Compressor) {
		c.compression = ct
	})
}
