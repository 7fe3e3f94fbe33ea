package bitpack

import "math/bits"

// Simple8BMaxZigzag is the hard Simple-8B limit: 2^60 - 2. A zig-zag value
// at or above this threshold cannot be packed and forces verbatim fallback.
const Simple8BMaxZigzag = uint64(1152921504606846974)

// bitsPerSelector maps a selector (0..15) to the per-element bit width it
// packs, selector -> bits.
var bitsPerSelector = [16]uint8{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 15, 20, 30, 60}

// elemsPerSelector maps a selector (0..15) to the number of elements it
// packs into one 64-bit word, selector -> elems.
var elemsPerSelector = [16]int{240, 120, 60, 30, 20, 15, 12, 10, 8, 7, 6, 5, 4, 3, 2, 1}

// bitsToSelector maps a minimum required bit width (0..60) to the smallest
// selector that can hold it.
var bitsToSelector = [61]uint8{
	0, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 11, 11, 12, 12, 12,
	13, 13, 13, 13, 13, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
}

// ElemsForSelector returns the group size packed by selector.
func ElemsForSelector(selector int) int { return elemsPerSelector[selector] }

// BitsForSelector returns the per-element bit width packed by selector.
func BitsForSelector(selector int) uint8 { return bitsPerSelector[selector] }

// SelectorForBits returns the smallest selector able to hold an element
// requiring bits bits. bits must be in [0, 60].
func SelectorForBits(bits int) int { return int(bitsToSelector[bits]) }

// MinBits returns the minimum number of bits needed to represent a zig-zag
// encoded value: 0 for z == 0 (the builtin clz of 0 is undefined, so the
// source special-cases it), otherwise 64 - leading-zero-count.
func MinBits(z uint64) int {
	if z == 0 {
		return 0
	}

	return 64 - bits.LeadingZeros64(z)
}

// PackWord packs the selector and the first ElemsForSelector(selector)
// zig-zag values from vals into one Simple-8B word: selector in the low 4
// bits, then each value's payload in bits-wide fields starting at bit 4,
// little-endian within the word.
//
// vals must contain at least ElemsForSelector(selector) entries; any extra
// entries are ignored.
func PackWord(selector int, vals []uint64) uint64 {
	word := uint64(selector)
	bitw := bitsPerSelector[selector]
	if bitw == 0 {
		return word
	}

	mask := (uint64(1) << bitw) - 1
	for i := 0; i < elemsPerSelector[selector] && i < len(vals); i++ {
		word |= (vals[i] & mask) << (bitw*uint(i) + 4)
	}

	return word
}

// UnpackWord splits a Simple-8B word into its selector, element count, and
// per-element bit width.
func UnpackWord(word uint64) (selector int, elems int, bitw uint8) {
	selector = int(word & 0xf)

	return selector, elemsPerSelector[selector], bitsPerSelector[selector]
}

// ExtractValue reads the idx-th bitw-wide zig-zag field out of a Simple-8B
// word (idx is 0-based, fields start at bit 4). Selector 0 and 1 both have
// bitw == 0, so every extracted value is 0 without needing a special case —
// this folds the source's redundant "selector == 0 || selector == 1" branch
// into the general path.
func ExtractValue(word uint64, bitw uint8, idx int) uint64 {
	if bitw == 0 {
		return 0
	}

	mask := (uint64(1) << bitw) - 1

	return (word >> (uint(bitw)*uint(idx) + 4)) & mask
}
