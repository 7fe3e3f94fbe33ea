package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/skyformat99/tscompress/errs"
	"github.com/skyformat99/tscompress/format"
	"github.com/skyformat99/tscompress/internal/bitpack"
)

// EncodeInt packs a column of fixed-width signed or unsigned integers using
// Simple-8B over zig-zag deltas.
//
// typ selects the element width (1/2/4/8 bytes); values must hold a whole
// number of typ.Width()-byte elements, little-endian per element. The
// returned buffer begins with a mode byte: 0 for a compressed Simple-8B
// stream, 1 for a verbatim copy of values, chosen whenever compression
// would not shrink the input or a numeric invariant (overflow, or a
// zig-zag value at or above 2^60-2) is violated.
func EncodeInt(typ format.Type, values []byte) ([]byte, error) {
	width := typ.Width()
	if !typ.IsInteger() || width == 0 {
		return nil, fmt.Errorf("%w: EncodeInt: unsupported type %s", errs.ErrInvalidArgument, typ)
	}
	if len(values)%width != 0 {
		return nil, fmt.Errorf("%w: EncodeInt: values length %d not a multiple of width %d", errs.ErrInvalidArgument, len(values), width)
	}
	n := len(values) / width

	byteLimit := n*width + 1
	out := make([]byte, 1, byteLimit)

	read := intReader(typ, values)

	prev := int64(0)
	i := 0
	for i < n {
		selector, elems, ok := selectGroup(read, i, n, prev)
		if !ok {
			return verbatimInt(values, n, width), nil
		}

		vals := make([]uint64, elems)
		for k := 0; k < elems; k++ {
			curr := read(i + k)
			diff := curr - prev
			vals[k] = bitpack.ZigZagEncode(diff)
			prev = curr
		}

		word := bitpack.PackWord(selector, vals)
		if len(out)+8 > byteLimit {
			return verbatimInt(values, n, width), nil
		}

		var wordBuf [8]byte
		binary.LittleEndian.PutUint64(wordBuf[:], word)
		out = append(out, wordBuf[:]...)

		i += elems
	}

	out[0] = 0

	return out, nil
}

// selectGroup runs the greedy Simple-8B group-building scan starting at
// index i: it grows the group while both the group's current selector
// capacity and the new element's own minimum-bits selector capacity can
// still hold one more element, and seals the group the moment a new element
// no longer fits: the selector is raised until its capacity no longer
// exceeds the accumulated element count, and the group is sealed with
// exactly that capacity (any further accumulated elements start the next
// group). ok is false when a delta
// overflows int64 or a zig-zag value hits the Simple-8B ceiling.
func selectGroup(read func(int) int64, i, n int, prev int64) (selector, elems int, ok bool) {
	prevTmp := prev

	for j := i; j < n; j++ {
		curr := read(j)
		if bitpack.SafeAddOverflows(curr, -prevTmp) {
			return 0, 0, false
		}

		diff := curr - prevTmp
		z := bitpack.ZigZagEncode(diff)
		if z >= bitpack.Simple8BMaxZigzag {
			return 0, 0, false
		}

		bit := bitpack.MinBits(z)
		candSel := bitpack.SelectorForBits(bit)

		if elems+1 <= bitpack.ElemsForSelector(selector) && elems+1 <= bitpack.ElemsForSelector(candSel) {
			if candSel > selector {
				selector = candSel
			}
			elems++
			prevTmp = curr
		} else {
			for elems < bitpack.ElemsForSelector(selector) {
				selector++
			}
			elems = bitpack.ElemsForSelector(selector)

			return selector, elems, true
		}
	}

	return selector, elems, true
}

func verbatimInt(values []byte, n, width int) []byte {
	out := make([]byte, 1+n*width)
	out[0] = 1
	copy(out[1:], values[:n*width])

	return out
}

// DecodeInt reverses EncodeInt, producing exactly n*typ.Width() bytes.
func DecodeInt(typ format.Type, data []byte, n int) ([]byte, error) {
	width := typ.Width()
	if !typ.IsInteger() || width == 0 {
		return nil, fmt.Errorf("%w: DecodeInt: unsupported type %s", errs.ErrInvalidArgument, typ)
	}
	if n < 0 || len(data) < 1 {
		return nil, fmt.Errorf("%w: DecodeInt: empty input", errs.ErrInvalidArgument)
	}

	if data[0] == 1 {
		if len(data) < 1+n*width {
			return nil, fmt.Errorf("%w: DecodeInt: truncated verbatim payload", errs.ErrCorruptEncoding)
		}

		out := make([]byte, n*width)
		copy(out, data[1:1+n*width])

		return out, nil
	}
	if data[0] != 0 {
		return nil, fmt.Errorf("%w: DecodeInt: bad mode byte %d", errs.ErrCorruptEncoding, data[0])
	}

	out := make([]byte, n*width)
	write := intWriter(typ, out)

	prev := int64(0)
	pos := 1
	count := 0
	for count < n {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: DecodeInt: truncated Simple-8B word", errs.ErrCorruptEncoding)
		}

		word := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8

		_, elems, bitw := bitpack.UnpackWord(word)
		for k := 0; k < elems && count < n; k++ {
			z := bitpack.ExtractValue(word, bitw, k)
			diff := bitpack.ZigZagDecode(z)
			curr := diff + prev
			prev = curr
			write(count, curr)
			count++
		}
	}

	return out, nil
}

// intReader returns a function reading the j-th element of typ's family as
// a sign-extended int64, matching the source's "convert to INT64" switch.
func intReader(typ format.Type, values []byte) func(int) int64 {
	switch typ {
	case format.TypeInt8:
		return func(j int) int64 { return int64(int8(values[j])) }
	case format.TypeUint8:
		return func(j int) int64 { return int64(values[j]) }
	case format.TypeInt16:
		return func(j int) int64 { return int64(int16(binary.LittleEndian.Uint16(values[j*2:]))) }
	case format.TypeUint16:
		return func(j int) int64 { return int64(binary.LittleEndian.Uint16(values[j*2:])) }
	case format.TypeInt32:
		return func(j int) int64 { return int64(int32(binary.LittleEndian.Uint32(values[j*4:]))) }
	case format.TypeUint32:
		return func(j int) int64 { return int64(binary.LittleEndian.Uint32(values[j*4:])) }
	case format.TypeInt64:
		return func(j int) int64 { return int64(binary.LittleEndian.Uint64(values[j*8:])) }
	case format.TypeUint64:
		return func(j int) int64 { return int64(binary.LittleEndian.Uint64(values[j*8:])) }
	default:
		return nil
	}
}

// intWriter returns a function storing curr, truncated to typ's width, at
// element index idx of out. The running sum is kept in full 64-bit
// arithmetic throughout; only the store truncates.
func intWriter(typ format.Type, out []byte) func(idx int, curr int64) {
	switch typ {
	case format.TypeInt8, format.TypeUint8:
		return func(idx int, curr int64) { out[idx] = byte(curr) }
	case format.TypeInt16, format.TypeUint16:
		return func(idx int, curr int64) { binary.LittleEndian.PutUint16(out[idx*2:], uint16(curr)) }
	case format.TypeInt32, format.TypeUint32:
		return func(idx int, curr int64) { binary.LittleEndian.PutUint32(out[idx*4:], uint32(curr)) }
	case format.TypeInt64, format.TypeUint64:
		return func(idx int, curr int64) { binary.LittleEndian.PutUint64(out[idx*8:], uint64(curr)) }
	default:
		return nil
	}
}
