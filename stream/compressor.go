package stream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/skyformat99/tscompress/compress"
	"github.com/skyformat99/tscompress/errs"
	"github.com/skyformat99/tscompress/format"
	"github.com/skyformat99/tscompress/internal/bitpack"
	"github.com/skyformat99/tscompress/internal/options"
	"github.com/skyformat99/tscompress/internal/pool"
)

// Algorithm selects whether Finalize applies a second compression pass
// (LZ4 unless WithCompression picks another codec) over the fully-assembled
// column buffer.
type Algorithm uint8

const (
	// OneStage returns the primary buffer as-is.
	OneStage Algorithm = iota + 1
	// TwoStage compresses the primary buffer with the WithCompression codec
	// (LZ4 by default), falling back to a verbatim copy if that doesn't
	// help, mirroring tCompGen.
	TwoStage
)

// simple8bRingSize is the size of the pending-element ring buffer used by
// the streaming integer feeder, matching the source's i_aZigzag/i_aBitN
// arrays.
const simple8bRingSize = 241

// Compressor is a single-owner, per-column streaming encoder: Feed values
// one at a time in column order, then call Finalize once to obtain the
// encoded buffer. Not safe for concurrent use from multiple goroutines;
// safe to use from different goroutines serially (i.e. handed off after
// Finalize/Close).
type Compressor struct {
	typ   format.Type
	alg   Algorithm
	nVal  int
	width int

	initialCapacity int
	autoAlloc       bool
	compression     format.CompressionType
	primary         *pool.ByteBuffer
	scratch         *pool.ByteBuffer

	// timestamp state
	tsPrevVal   int64
	tsPrevDelta int64
	tsFlagPos   int // index into primary.B of the pending flag byte, -1 if none

	// integer state
	intPrev     int64
	intSelector int
	intStart    int
	intEnd      int
	intZigzag   [simple8bRingSize]uint64
	intBitN     [simple8bRingSize]int8
	intCopyMode bool

	// float32 state
	f32Prev    uint32
	f32FlagPos int

	// float64 state
	f64Prev    uint64
	f64FlagPos int

	closed bool
}

// NewCompressor allocates a Compressor with its primary buffer preallocated,
// mirroring tCompressorCreate's 1024-byte initial allocation. Reset must be
// called before the first Feed.
func NewCompressor(opts ...Option) *Compressor {
	c := &Compressor{
		initialCapacity: defaultInitialCapacity,
		autoAlloc:       true,
		compression:     format.CompressionLZ4,
	}
	if err := options.Apply(c, opts...); err != nil {
		// NoError-wrapped options never fail; this branch exists only to
		// satisfy Apply's signature.
		panic(err)
	}
	if c.primary == nil {
		c.primary = pool.NewByteBuffer(c.initialCapacity)
	}

	return c
}

// Reset clears the compressor's state and prepares it to accept a new
// column of type typ, using alg at Finalize time. Mirrors tCompressorReset.
func (c *Compressor) Reset(typ format.Type, alg Algorithm) error {
	if c.closed {
		panic("stream: Reset called on a closed Compressor")
	}

	c.typ = typ
	c.alg = alg
	c.nVal = 0
	c.width = typ.Width()
	c.primary.Reset()

	switch typ {
	case format.TypeTimestamp:
		c.tsPrevVal = 0
		c.tsPrevDelta = 0
		c.tsFlagPos = -1
		c.primary.MustWrite([]byte{1}) // 1 means compressed, for timestamps only
	case format.TypeBool, format.TypeString:
		// no mode prefix
	case format.TypeFloat32:
		c.f32Prev = 0
		c.f32FlagPos = -1
		c.primary.MustWrite([]byte{0})
	case format.TypeFloat64:
		c.f64Prev = 0
		c.f64FlagPos = -1
		c.primary.MustWrite([]byte{0})
	default:
		if !typ.IsInteger() {
			return fmt.Errorf("%w: Reset: unsupported type %s", errs.ErrInvalidArgument, typ)
		}
		c.intPrev = 0
		c.intSelector = 0
		c.intStart = 0
		c.intEnd = 0
		c.intCopyMode = false
		c.primary.MustWrite([]byte{0})
	}

	return nil
}

// Feed ingests one value, whose concrete type must match the column type
// installed by Reset: int64 for integer or timestamp columns, bool for
// boolean columns, float32/float64 for float columns, []byte for string
// columns.
func (c *Compressor) Feed(value any) error {
	switch c.typ {
	case format.TypeTimestamp:
		v, ok := value.(int64)
		if !ok {
			return fmt.Errorf("%w: Feed: expected int64 for timestamp column", errs.ErrInvalidArgument)
		}

		return c.feedTimestamp(v)
	case format.TypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: Feed: expected bool for boolean column", errs.ErrInvalidArgument)
		}

		return c.feedBool(v)
	case format.TypeFloat32:
		v, ok := value.(float32)
		if !ok {
			return fmt.Errorf("%w: Feed: expected float32 for float32 column", errs.ErrInvalidArgument)
		}

		return c.feedFloat32(v)
	case format.TypeFloat64:
		v, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%w: Feed: expected float64 for float64 column", errs.ErrInvalidArgument)
		}

		return c.feedFloat64(v)
	case format.TypeString:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("%w: Feed: expected []byte for string/binary column", errs.ErrInvalidArgument)
		}

		return c.feedBinary(v)
	default:
		if !c.typ.IsInteger() {
			return fmt.Errorf("%w: Feed: unsupported type %s", errs.ErrInvalidArgument, c.typ)
		}
		v, ok := value.(int64)
		if !ok {
			return fmt.Errorf("%w: Feed: expected int64 for integer column", errs.ErrInvalidArgument)
		}

		return c.feedInt(v)
	}
}

// grow ensures n additional bytes are available in the primary buffer,
// returning errs.ErrOutOfMemory when autoAlloc is false and capacity is
// exhausted.
func (c *Compressor) grow(n int) error {
	if !c.autoAlloc {
		if cap(c.primary.B)-len(c.primary.B) < n {
			return fmt.Errorf("%w: Feed: fixed buffer exhausted", errs.ErrOutOfMemory)
		}

		return nil
	}
	c.primary.Grow(n)

	return nil
}

// --- timestamp ---------------------------------------------------------

func (c *Compressor) feedTimestamp(ts int64) error {
	if c.primary.B[0] == 1 {
		if c.nVal == 0 {
			c.tsPrevVal = ts
			c.tsPrevDelta = -ts
		}

		if bitpack.SafeAddOverflows(ts, -c.tsPrevVal) {
			return c.tsSetCopyMode(ts)
		}
		delta := ts - c.tsPrevVal
		if bitpack.SafeAddOverflows(delta, -c.tsPrevDelta) {
			return c.tsSetCopyMode(ts)
		}
		dod := delta - c.tsPrevDelta
		z := bitpack.ZigZagEncode(dod)

		c.tsPrevVal = ts
		c.tsPrevDelta = delta

		if c.nVal&1 == 0 {
			if err := c.grow(9); err != nil {
				return err
			}
			c.tsFlagPos = len(c.primary.B)
			c.primary.MustWrite([]byte{0})
			for z != 0 {
				c.primary.MustWrite([]byte{byte(z)})
				c.primary.B[c.tsFlagPos]++
				z >>= 8
			}
		} else {
			if err := c.grow(8); err != nil {
				return err
			}
			for z != 0 {
				c.primary.MustWrite([]byte{byte(z)})
				c.primary.B[c.tsFlagPos] += 0x10
				z >>= 8
			}
		}
	} else {
		if err := c.grow(8); err != nil {
			return err
		}
		c.appendRawInt64(ts)
	}
	c.nVal++

	return nil
}

// tsSetCopyMode replays the flag-nibble-grouped delta-of-delta stream
// already written into the primary buffer back into raw int64s, mirroring
// tCompSetCopyMode, then appends the current overflowing value verbatim.
func (c *Compressor) tsSetCopyMode(ts int64) error {
	if c.nVal > 0 {
		raw := make([]byte, 0, c.nVal*8)

		n := 1
		var value, delta int64
		decoded := 0
		buf := c.primary.B
		for n < len(buf) {
			flagByte := buf[n]
			aN := [2]byte{flagByte & 0xf, flagByte >> 4}
			n++

			for i := 0; i < 2; i++ {
				var z uint64
				for j := byte(0); j < aN[i]; j++ {
					z |= uint64(buf[n]) << (8 * j)
					n++
				}
				dod := bitpack.ZigZagDecode(z)
				if decoded == 0 {
					delta = 0
					value = dod
				} else {
					delta += dod
					value += delta
				}

				var tmp [8]byte
				binary.LittleEndian.PutUint64(tmp[:], uint64(value))
				raw = append(raw, tmp[:]...)
				decoded++

				if n >= len(buf) {
					break
				}
			}
		}

		c.primary.SetLength(1)
		if err := c.grow(len(raw)); err != nil {
			return err
		}
		c.primary.MustWrite(raw)
	}
	c.primary.B[0] = 0

	if err := c.grow(8); err != nil {
		return err
	}
	c.appendRawInt64(ts)

	return nil
}

func (c *Compressor) appendRawInt64(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	c.primary.MustWrite(tmp[:])
}

// --- integer -------------------------------------------------------------

func (c *Compressor) feedInt(val int64) error {
	if c.intCopyMode {
		if err := c.grow(c.width); err != nil {
			return err
		}
		c.appendRawWidth(val)
		c.nVal++

		return nil
	}

	if bitpack.SafeAddOverflows(val, -c.intPrev) {
		return c.intEnterCopyMode(val)
	}
	diff := val - c.intPrev
	z := bitpack.ZigZagEncode(diff)
	if z >= bitpack.Simple8BMaxZigzag {
		return c.intEnterCopyMode(val)
	}

	nBit := bitpack.MinBits(z)
	c.intPrev = val

	for {
		nEle := (c.intEnd + simple8bRingSize - c.intStart) % simple8bRingSize
		candSel := bitpack.SelectorForBits(nBit)

		if nEle+1 <= bitpack.ElemsForSelector(c.intSelector) && nEle+1 <= bitpack.ElemsForSelector(candSel) {
			if c.intSelector < candSel {
				c.intSelector = candSel
			}
			c.intZigzag[c.intEnd] = z
			c.intBitN[c.intEnd] = int8(nBit)
			c.intEnd = (c.intEnd + 1) % simple8bRingSize

			break
		}

		for nEle < bitpack.ElemsForSelector(c.intSelector) {
			c.intSelector++
		}
		nEle = bitpack.ElemsForSelector(c.intSelector)

		if err := c.grow(8); err != nil {
			return err
		}
		bitw := bitpack.BitsForSelector(c.intSelector)
		word := uint64(c.intSelector)
		for iVal := 0; iVal < nEle; iVal++ {
			mask := (uint64(1) << bitw) - 1
			word |= (c.intZigzag[c.intStart] & mask) << (uint(bitw)*uint(iVal) + 4)
			c.intStart = (c.intStart + 1) % simple8bRingSize
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], word)
		c.primary.MustWrite(tmp[:])

		c.intSelector = 0
		for iVal := c.intStart; iVal != c.intEnd; iVal = (iVal + 1) % simple8bRingSize {
			if sel := bitpack.SelectorForBits(int(c.intBitN[iVal])); c.intSelector < sel {
				c.intSelector = sel
			}
		}
	}
	c.nVal++

	return nil
}

// intEnterCopyMode mirrors tCompInt's "_copy_cmpr" label: from this value
// onward every fed value is appended as a raw width-byte element. Any
// Simple-8B words already sealed into the primary buffer are left as-is —
// this asymmetry (versus the timestamp feeder's full replay) is inherited
// from tcompression.c, see DESIGN.md.
func (c *Compressor) intEnterCopyMode(val int64) error {
	c.intCopyMode = true
	if err := c.grow(c.width); err != nil {
		return err
	}
	c.appendRawWidth(val)

	return nil
}

func (c *Compressor) appendRawWidth(v int64) {
	var tmp [8]byte
	switch c.width {
	case 1:
		c.primary.MustWrite([]byte{byte(v)})

		return
	case 2:
		binary.LittleEndian.PutUint16(tmp[:2], uint16(v))
		c.primary.MustWrite(tmp[:2])

		return
	case 4:
		binary.LittleEndian.PutUint32(tmp[:4], uint32(v))
		c.primary.MustWrite(tmp[:4])

		return
	default:
		binary.LittleEndian.PutUint64(tmp[:8], uint64(v))
		c.primary.MustWrite(tmp[:8])
	}
}

// --- float32/float64 ------------------------------------------------------

func (c *Compressor) feedFloat32(v float32) error {
	bitsVal := math.Float32bits(v)
	diff := bitsVal ^ c.f32Prev
	c.f32Prev = bitsVal

	nbytes, direction := xorTag32(diff)
	flag := (direction << 3) | nbytes
	actual := int(nbytes) + 1
	diff >>= uint((4-actual)*8) * uint(direction)

	if err := c.grow(9); err != nil {
		return err
	}
	if c.nVal&1 == 0 {
		c.f32FlagPos = len(c.primary.B)
		c.primary.MustWrite([]byte{0})
		c.primary.B[c.f32FlagPos] = flag
	} else {
		c.primary.B[c.f32FlagPos] |= flag << 4
	}

	for i := 0; i < actual; i++ {
		c.primary.MustWrite([]byte{byte(diff)})
		diff >>= 8
	}
	c.nVal++

	return nil
}

func (c *Compressor) feedFloat64(v float64) error {
	bitsVal := math.Float64bits(v)
	diff := bitsVal ^ c.f64Prev
	c.f64Prev = bitsVal

	nbytes, direction := xorTag64(diff)
	flag := (direction << 3) | nbytes
	actual := int(nbytes) + 1
	diff >>= uint((8-actual)*8) * uint(direction)

	if err := c.grow(17); err != nil {
		return err
	}
	if c.nVal&1 == 0 {
		c.f64FlagPos = len(c.primary.B)
		c.primary.MustWrite([]byte{0})
		c.primary.B[c.f64FlagPos] = flag
	} else {
		c.primary.B[c.f64FlagPos] |= flag << 4
	}

	for i := 0; i < actual; i++ {
		c.primary.MustWrite([]byte{byte(diff)})
		diff >>= 8
	}
	c.nVal++

	return nil
}

// --- bool ------------------------------------------------------------------

var boolCmprTable = [4]byte{0b01, 0b0100, 0b010000, 0b01000000}

func (c *Compressor) feedBool(v bool) error {
	mod4 := c.nVal & 3
	if mod4 == 0 {
		if err := c.grow(1); err != nil {
			return err
		}
		c.primary.ExtendOrGrow(1)
	}
	if v {
		last := len(c.primary.B) - 1
		c.primary.B[last] |= boolCmprTable[mod4]
	}
	c.nVal++

	return nil
}

// --- binary ------------------------------------------------------------------

func (c *Compressor) feedBinary(b []byte) error {
	if len(b) > 0 {
		if err := c.grow(len(b)); err != nil {
			return err
		}
		c.primary.MustWrite(b)
	}
	c.nVal++

	return nil
}

// --- finalize --------------------------------------------------------------

// Finalize returns the fully-assembled encoded buffer for the current
// column. When alg is TwoStage, the primary buffer is compressed with the
// codec selected by WithCompression (default LZ4) into the scratch buffer,
// prefixed with a one-byte mode (0=compressed, 1=verbatim — chosen whenever
// the codec fails or does not shrink the input), mirroring tCompGen. When
// nVal is 0, Finalize returns an empty slice.
func (c *Compressor) Finalize() ([]byte, error) {
	if c.nVal == 0 {
		return []byte{}, nil
	}

	if c.typ.IsInteger() && !c.intCopyMode && c.intStart != c.intEnd {
		if err := c.grow(8); err != nil {
			return nil, err
		}
		bitw := bitpack.BitsForSelector(c.intSelector)
		word := uint64(c.intSelector)
		for iVal := 0; c.intStart != c.intEnd; iVal++ {
			mask := (uint64(1) << bitw) - 1
			word |= (c.intZigzag[c.intStart] & mask) << (uint(bitw)*uint(iVal) + 4)
			c.intStart = (c.intStart + 1) % simple8bRingSize
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], word)
		c.primary.MustWrite(tmp[:])
	}

	if c.alg != TwoStage {
		out := make([]byte, len(c.primary.B))
		copy(out, c.primary.B)

		return out, nil
	}

	codec, err := compress.CreateCodec(c.compression, "stream.Compressor.Finalize")
	if err != nil {
		return nil, err
	}

	if c.scratch == nil {
		c.scratch = pool.NewByteBuffer(len(c.primary.B) + 1)
	}
	c.scratch.Reset()

	compressed, cErr := codec.Compress(c.primary.B)
	if cErr == nil && len(compressed) > 0 && len(compressed) < len(c.primary.B) {
		c.scratch.MustWrite([]byte{0})
		c.scratch.MustWrite(compressed)
	} else {
		c.scratch.MustWrite([]byte{1})
		c.scratch.MustWrite(c.primary.B)
	}

	out := make([]byte, c.scratch.Len())
	copy(out, c.scratch.Bytes())

	return out, nil
}

// Close releases the compressor's buffers. The Compressor must not be used
// afterward.
func (c *Compressor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.autoAlloc {
		pool.PutBlobBuffer(c.primary)
	}
	c.primary = nil
	c.scratch = nil
}
