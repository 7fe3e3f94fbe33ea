package codec

import (
	"fmt"
	"math/bits"

	"github.com/skyformat99/tscompress/errs"
	"github.com/skyformat99/tscompress/internal/bitpack"
	"github.com/skyformat99/tscompress/internal/pool"
)

// EncodeTimestamp packs a column of N signed 64-bit timestamps using
// delta-of-delta with zig-zag and a per-pair variable byte width.
//
// The returned buffer begins with a mode byte: 1 for a compressed
// delta-of-delta stream, 0 for a verbatim copy of values — note this
// polarity is the reverse of the other numeric codecs, matching the
// source's convention for this type alone. Mode 0 is also used, as a
// deliberate source quirk preserved here for bit-exact parity, whenever the
// very first timestamp is negative.
func EncodeTimestamp(values []int64) ([]byte, error) {
	n := len(values)
	if n == 0 {
		return []byte{}, nil
	}

	limit := n*8 + 1
	if values[0] < 0 {
		return verbatimTimestamp(values), nil
	}

	out := make([]byte, 1, limit)
	prevValue := values[0]
	prevDelta := -prevValue

	var flag1, flag2 byte
	var dd1, dd2 uint64

	for i := 0; i < n; i++ {
		curr := values[i]
		if bitpack.SafeAddOverflows(curr, -prevValue) {
			return verbatimTimestamp(values), nil
		}
		delta := curr - prevValue
		if bitpack.SafeAddOverflows(delta, -prevDelta) {
			return verbatimTimestamp(values), nil
		}
		dod := delta - prevDelta
		z := bitpack.ZigZagEncode(dod)

		if i%2 == 0 {
			dd1 = z
			flag1 = byteWidth(z)
		} else {
			dd2 = z
			flag2 = byteWidth(z)

			var ok bool
			out, ok = appendPair(out, limit, flag1, dd1, flag2, dd2)
			if !ok {
				return verbatimTimestamp(values), nil
			}
		}

		prevValue = curr
		prevDelta = delta
	}

	if n%2 == 1 {
		var ok bool
		out, ok = appendPair(out, limit, flag1, dd1, 0, 0)
		if !ok {
			return verbatimTimestamp(values), nil
		}
	}

	out[0] = 1

	return out, nil
}

// byteWidth returns the minimum number of bytes needed to hold z: 0 iff
// z == 0.
func byteWidth(z uint64) byte {
	if z == 0 {
		return 0
	}

	return byte(8 - bits.LeadingZeros64(z)/8)
}

func appendPair(out []byte, limit int, flag1 byte, dd1 uint64, flag2 byte, dd2 uint64) ([]byte, bool) {
	if len(out)+1 > limit {
		return out, false
	}
	out = append(out, flag1|(flag2<<4))

	if len(out)+int(flag1) > limit {
		return out, false
	}
	out = appendLE(out, dd1, flag1)

	if len(out)+int(flag2) > limit {
		return out, false
	}
	out = appendLE(out, dd2, flag2)

	return out, true
}

func appendLE(out []byte, v uint64, nbytes byte) []byte {
	for i := byte(0); i < nbytes; i++ {
		out = append(out, byte(v))
		v >>= 8
	}

	return out
}

func verbatimTimestamp(values []int64) []byte {
	n := len(values)
	out := make([]byte, 1+n*8)
	for i, v := range values {
		putLE64(out[1+i*8:], uint64(v))
	}

	return out
}

func putLE64(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v)
		v >>= 8
	}
}

func readLE64(src []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = (v << 8) | uint64(src[i])
	}

	return v
}

// DecodeTimestamp reverses EncodeTimestamp, returning exactly n values.
func DecodeTimestamp(data []byte, n int) ([]int64, error) {
	if n == 0 {
		return []int64{}, nil
	}

	out := make([]int64, n)
	if err := decodeTimestampInto(out, data); err != nil {
		return nil, err
	}

	return out, nil
}

// DecodeTimestampPooled behaves like DecodeTimestamp but draws its output
// slice from a shared pool instead of allocating, for callers decoding many
// columns back to back (e.g. a query path iterating over blocks). The
// caller must invoke release once the returned slice is no longer needed.
func DecodeTimestampPooled(data []byte, n int) (values []int64, release func(), err error) {
	if n == 0 {
		return []int64{}, func() {}, nil
	}

	out, release := pool.GetInt64Slice(n)
	if err := decodeTimestampInto(out, data); err != nil {
		release()
		return nil, nil, err
	}

	return out, release, nil
}

func decodeTimestampInto(out []int64, data []byte) error {
	n := len(out)
	if len(data) < 1 {
		return fmt.Errorf("%w: DecodeTimestamp: empty input", errs.ErrInvalidArgument)
	}

	if data[0] == 0 {
		if len(data) < 1+n*8 {
			return fmt.Errorf("%w: DecodeTimestamp: truncated verbatim payload", errs.ErrCorruptEncoding)
		}
		for i := range out {
			out[i] = int64(readLE64(data[1+i*8:]))
		}

		return nil
	}
	if data[0] != 1 {
		return fmt.Errorf("%w: DecodeTimestamp: bad mode byte %d", errs.ErrCorruptEncoding, data[0])
	}

	ipos := 1
	opos := 0
	var prevValue, prevDelta int64

	// readWidth pulls a single nbytes-wide zig-zag field from data at ipos,
	// advancing ipos, and returns the decoded delta-of-delta.
	readWidth := func(nbytes byte) (int64, error) {
		if nbytes == 0 {
			return 0, nil
		}
		if ipos+int(nbytes) > len(data) {
			return 0, fmt.Errorf("%w: DecodeTimestamp: truncated payload bytes", errs.ErrCorruptEncoding)
		}
		var z uint64
		for i := int(nbytes) - 1; i >= 0; i-- {
			z = (z << 8) | uint64(data[ipos+i])
		}
		ipos += int(nbytes)

		return bitpack.ZigZagDecode(z), nil
	}

	for opos < n {
		if ipos >= len(data) {
			return fmt.Errorf("%w: DecodeTimestamp: truncated flag byte", errs.ErrCorruptEncoding)
		}
		flags := data[ipos]
		ipos++

		dod1, err := readWidth(flags & 0xf)
		if err != nil {
			return err
		}
		if opos == 0 {
			prevValue = dod1
			prevDelta = 0
		} else {
			prevDelta = dod1 + prevDelta
			prevValue += prevDelta
		}
		out[opos] = prevValue
		opos++
		if opos == n {
			break
		}

		dod2, err := readWidth(flags >> 4)
		if err != nil {
			return err
		}
		prevDelta = dod2 + prevDelta
		prevValue += prevDelta
		out[opos] = prevValue
		opos++
	}

	return nil
}
