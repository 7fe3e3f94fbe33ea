package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/skyformat99/tscompress/errs"
)

// EncodeBinary attempts to LZ4-compress a single variable-length blob
// (a string, JSON document, or raw binary value). If LZ4 reports a
// non-positive result or a compressed size larger than the input, the
// blob is stored verbatim instead. The returned buffer begins with a mode
// byte: 1 for LZ4-compressed, 0 for verbatim — the reverse polarity of the
// integer and float codecs, matching the source's string codec specifically.
func EncodeBinary(value []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(value))
	dst := make([]byte, 1+bound)

	var c lz4.Compressor
	n, err := c.CompressBlock(value, dst[1:])
	if err != nil || n <= 0 || n > len(value) {
		out := make([]byte, 1+len(value))
		out[0] = 0
		copy(out[1:], value)

		return out, nil
	}

	dst[0] = 1

	return dst[:1+n], nil
}

// DecodeBinary reverses EncodeBinary. outSize is the exact decompressed
// byte count the caller expects (the original column tracks this out of
// band, matching spec.md §4.5).
func DecodeBinary(data []byte, outSize int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: DecodeBinary: empty input", errs.ErrInvalidArgument)
	}

	switch data[0] {
	case 0:
		if len(data) < 1+outSize {
			return nil, fmt.Errorf("%w: DecodeBinary: truncated verbatim payload", errs.ErrCorruptEncoding)
		}
		out := make([]byte, outSize)
		copy(out, data[1:1+outSize])

		return out, nil
	case 1:
		out := make([]byte, outSize)
		n, err := lz4.UncompressBlock(data[1:], out)
		if err != nil {
			return nil, fmt.Errorf("%w: DecodeBinary: %v", errs.ErrCorruptEncoding, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: DecodeBinary: negative decompressed size", errs.ErrCorruptEncoding)
		}

		return out[:n], nil
	default:
		return nil, fmt.Errorf("%w: DecodeBinary: bad mode byte %d", errs.ErrCorruptEncoding, data[0])
	}
}
