// Package tscompress provides a compact binary format for columnar
// time-series telemetry: type-specialized block codecs plus a streaming
// compressor that assembles a column from one-at-a-time values.
//
// # Core Features
//
//   - Simple-8B-over-zigzag-delta packing for integer columns
//   - Delta-of-delta variable byte-width packing for timestamp columns
//   - Two-bit pack and run-length encoding for boolean columns
//   - Byte-aligned XOR encoding for float32/float64 columns
//   - LZ4 block compression for string/binary columns
//   - A single-owner streaming compressor (stream.Compressor) with an
//     optional second-stage pass (LZ4/Zstd/S2) at Finalize
//
// # Basic Usage
//
// One-shot block encoding, when every value is already buffered:
//
//	import "github.com/skyformat99/tscompress/codec"
//
//	encoded, err := codec.EncodeTimestamp(timestamps)
//	decoded, err := codec.DecodeTimestamp(encoded, len(timestamps))
//
// Streaming encoding, when values arrive one at a time:
//
//	c, err := tscompress.NewColumnCompressor(format.TypeTimestamp, stream.OneStage)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	for _, ts := range timestamps {
//	    if err := c.Feed(ts); err != nil {
//	        return err
//	    }
//	}
//	encoded, err := c.Finalize()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the codec and
// stream packages, simplifying the most common use cases. For advanced
// usage and fine-grained control, use those packages directly.
package tscompress

import (
	"github.com/skyformat99/tscompress/format"
	"github.com/skyformat99/tscompress/stream"
)

// NewColumnCompressor creates a streaming compressor already Reset for typ,
// finalizing with alg at Finalize time.
//
// This is the recommended entry point for feeding a column one value at a
// time. For advanced configuration (a caller-owned buffer via
// stream.WithBuffer, or a non-default second-stage codec via
// stream.WithCompression), construct a stream.Compressor directly with
// stream.NewCompressor and call Reset yourself.
func NewColumnCompressor(typ format.Type, alg stream.Algorithm) (*stream.Compressor, error) {
	c := stream.NewCompressor()
	if err := c.Reset(typ, alg); err != nil {
		c.Close()

		return nil, err
	}

	return c, nil
}
