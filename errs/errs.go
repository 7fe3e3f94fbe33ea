// Package errs defines the sentinel error kinds shared by the codec, stream,
// and compress packages, matching the error taxonomy of the algorithm these
// packages implement: allocation failures, invalid arguments, and corrupt
// encodings. Numeric overflow during encoding is deliberately absent here —
// it is recovered locally by falling back to verbatim mode and never
// surfaces as an error.
package errs

import "errors"

var (
	// ErrOutOfMemory is returned when a buffer allocation or growth fails.
	ErrOutOfMemory = errors.New("tscompress: out of memory")

	// ErrInvalidArgument is returned for unsupported type tags, negative
	// element counts, or output buffers too small to hold a decode result.
	ErrInvalidArgument = errors.New("tscompress: invalid argument")

	// ErrCorruptEncoding is returned when a decoder observes data that
	// cannot have come from the matching encoder: an impossible selector,
	// a bad mode byte, an LZ4 stream that reports a negative size, or an
	// element count that doesn't add up by the end of the stream.
	ErrCorruptEncoding = errors.New("tscompress: corrupt encoding")
)
