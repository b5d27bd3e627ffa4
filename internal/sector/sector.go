// Package sector implements the fixed-size sector codec: header
// encode/decode, the sector length encoding, the byte randomizer, and the
// per-interleave-block Reed-Solomon framing that sits on top of one video
// field's worth of bytes.
package sector

import (
	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/format"
	"github.com/bugVanisher/bkrcodec/internal/galois"
)

// HeaderSize is the width of the trailing sector header, in bytes.
const HeaderSize = 4

// numberBits is the width of the signed sector-number field; the header
// packs { number: 25 bits, low_used: 4 bits, stream_id: 3 bits } into one
// little-endian 32-bit word, accessed by explicit shift/mask rather than a
// bitfield struct so the layout is the same on every platform.
const (
	numberBits = 25
	numberMask = 1<<numberBits - 1
	signBit    = 1 << (numberBits - 1)

	lowUsedShift = numberBits
	lowUsedBits  = 4
	lowUsedMask  = 1<<lowUsedBits - 1

	streamIDShift = numberBits + lowUsedBits
	streamIDBits  = 3
	streamIDMask  = 1<<streamIDBits - 1
)

// Header is the 32-bit trailing sector header.
type Header struct {
	Number   int32
	LowUsed  uint8
	StreamID uint8
}

// Encode packs h into its 32-bit little-endian on-wire form.
func (h Header) Encode() uint32 {
	v := uint32(h.Number) & numberMask
	v |= uint32(h.LowUsed&lowUsedMask) << lowUsedShift
	v |= uint32(h.StreamID&streamIDMask) << streamIDShift
	return v
}

// DecodeHeader unpacks a 32-bit on-wire header value, sign-extending the
// 25-bit sector number.
func DecodeHeader(v uint32) Header {
	n := int32(v & numberMask)
	if n&signBit != 0 {
		n |= ^int32(numberMask)
	}
	return Header{
		Number:   n,
		LowUsed:  uint8((v >> lowUsedShift) & lowUsedMask),
		StreamID: uint8((v >> streamIDShift) & streamIDMask),
	}
}

// PutHeader writes h into the last HeaderSize bytes of buf, little-endian.
func PutHeader(buf []byte, h Header) {
	v := h.Encode()
	n := len(buf)
	buf[n-4] = byte(v)
	buf[n-3] = byte(v >> 8)
	buf[n-2] = byte(v >> 16)
	buf[n-1] = byte(v >> 24)
}

// GetHeader reads the header from the last HeaderSize bytes of buf.
func GetHeader(buf []byte) Header {
	n := len(buf)
	v := uint32(buf[n-4]) | uint32(buf[n-3])<<8 | uint32(buf[n-2])<<16 | uint32(buf[n-1])<<24
	return DecodeHeader(v)
}

// Capacity returns the usable payload capacity of one sector: the data
// region minus the trailing header.
func Capacity(f *format.Format) int {
	return f.DataSize - HeaderSize
}

// EncodeLength maps a payload length to the on-wire encoded length, an
// encoding chosen so the result is never a multiple of 16 (so low_used,
// the low 4 bits, is never zero except for the explicit "sector is full"
// sentinel).
func EncodeLength(length int) int {
	return length + length/15 + 1
}

// DecodeLength recovers the original payload length from the encoded
// length's high byte (stored at capacity-1) and low nibble (stored in the
// header's low_used field).
func DecodeLength(high, low int) int {
	return high*15 + low - 1
}

// Randomize XORs buf in place with a pseudorandom stream seeded by seed,
// whitening it 4 bytes (one 32-bit word, little-endian) at a time. It is
// its own inverse when called twice with the same seed. len(buf) must be a
// multiple of 4 and Randomize panics otherwise; the sector codec passes the
// capacity region, whose length is a multiple of 4 in every format row.
//
// The generator is Knuth's linear congruential sequence, matching the
// original hardware driver. Four draws prime four "history" words; then,
// for each data word, a fresh draw's top two bits select one history word,
// that history word is XORed into the data word, and the fresh draw
// replaces it.
func Randomize(buf []byte, seed uint32) {
	if len(buf)%4 != 0 {
		panic("sector: Randomize: buffer length not a multiple of 4")
	}
	var history [4]uint32
	for i := range history {
		seed = 1664525*seed + 1013904223
		history[i] = seed
	}
	words := len(buf) / 4
	for w := 0; w < words; w++ {
		seed = 1664525*seed + 1013904223
		idx := seed >> 30
		off := w * 4
		word := uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
		word ^= history[idx]
		buf[off] = byte(word)
		buf[off+1] = byte(word >> 8)
		buf[off+2] = byte(word >> 16)
		buf[off+3] = byte(word >> 24)
		history[idx] = seed
	}
}

// Codec encodes and decodes whole sectors for one resolved format: it
// slices the data region into Interleave independent Reed-Solomon
// codewords and drives internal/galois across each one.
type Codec struct {
	f     *format.Format
	block *galois.Codec
}

// NewCodec builds a sector Codec for f.
func NewCodec(f *format.Format) (*Codec, error) {
	if f.Interleave <= 0 {
		return nil, bkrerrs.New(bkrerrs.CodeMalformedCodec, "sector: format has non-positive interleave")
	}
	blockData := f.DataSize / f.Interleave
	blockParity := f.ParitySize / f.Interleave
	rs, err := galois.NewCodec(blockData+blockParity, blockData)
	if err != nil {
		return nil, bkrerrs.Wrapf(err, "sector: building block RS codec")
	}
	return &Codec{f: f, block: rs}, nil
}

// Encode writes payload (at most Capacity(f) bytes) into a fresh sector
// buffer of exactly f.SectorSize bytes: length encoding, byte
// randomization of the payload region, header, and per-block Reed-Solomon
// parity, in that order.
func (c *Codec) Encode(payload []byte, number int32, streamID uint8) ([]byte, error) {
	cap_ := Capacity(c.f)
	if len(payload) > cap_ {
		return nil, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "sector: payload of %d bytes exceeds capacity %d", len(payload), cap_)
	}

	sec := make([]byte, c.f.SectorSize)
	data := sec[:c.f.DataSize]
	copy(data, payload)
	for i := len(payload); i < c.f.DataSize; i++ {
		data[i] = 0x33
	}

	h := Header{Number: number, StreamID: streamID}
	if len(payload) == cap_ {
		h.LowUsed = 0
	} else {
		e := EncodeLength(len(payload))
		data[cap_-1] = byte(e >> 4)
		h.LowUsed = uint8(e & 0xf)
	}

	// Randomize the capacity-sized payload region only, then write the
	// header in the clear: the decoder has to read the sector number out
	// of the header before it can de-randomize anything, so the header
	// itself must never be whitened.
	Randomize(data[:cap_], uint32(number))
	PutHeader(data, h)

	parity := sec[c.f.DataSize:]
	interleave := c.f.Interleave
	blockData := c.f.DataSize / interleave
	blockParity := c.f.ParitySize / interleave
	dbuf := make([]byte, blockData)
	pbuf := make([]byte, blockParity)
	for i := 0; i < interleave; i++ {
		gather(dbuf, data, i, interleave)
		c.block.Encode(dbuf, pbuf)
		scatter(parity, pbuf, i, interleave)
	}
	return sec, nil
}

// Decode reverses Encode: it runs per-block Reed-Solomon correction (using
// erasures, if any, as byte offsets into the data region known to be bad),
// then reads the header, which is stored in the clear, de-randomizes the
// payload region and recovers the original payload length. It returns the
// payload, the number of symbols corrected across all blocks, and the
// decoded header.
func (c *Codec) Decode(sec []byte, erasures []int) ([]byte, int, Header, error) {
	if len(sec) != c.f.SectorSize {
		return nil, 0, Header{}, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "sector: wrong sector size %d, want %d", len(sec), c.f.SectorSize)
	}
	data := make([]byte, c.f.DataSize)
	copy(data, sec[:c.f.DataSize])
	parity := sec[c.f.DataSize:]

	interleave := c.f.Interleave
	blockData := c.f.DataSize / interleave
	blockParity := c.f.ParitySize / interleave
	dbuf := make([]byte, blockData)
	pbuf := make([]byte, blockParity)

	total := 0
	uncorrectable := false
	for i := 0; i < interleave; i++ {
		gather(dbuf, data, i, interleave)
		gather(pbuf, parity, i, interleave)
		blockErasures := blockErasuresFor(erasures, i, interleave, blockParity)
		n, err := c.block.Decode(dbuf, pbuf, blockErasures)
		if err != nil {
			uncorrectable = true
			continue
		}
		total += n
		scatter(data, dbuf, i, interleave)
	}
	if uncorrectable {
		return nil, total, Header{}, bkrerrs.New(bkrerrs.CodeUncorrectable, "sector: one or more blocks uncorrectable")
	}

	h := GetHeader(data)
	cap_ := Capacity(c.f)
	Randomize(data[:cap_], uint32(h.Number))

	var length int
	if h.LowUsed == 0 {
		length = cap_
	} else {
		length = DecodeLength(int(data[cap_-1]), int(h.LowUsed))
		if length < 0 || length > cap_ {
			return nil, total, h, bkrerrs.New(bkrerrs.CodeBadSector, "sector: decoded length out of range")
		}
	}
	payload := make([]byte, length)
	copy(payload, data[:length])
	return payload, total, h, nil
}

// gather copies every interleave-th byte of src starting at offset start
// into dst, implementing the "codeword i uses bytes i, i+interleave,
// i+2*interleave, ..." striding used for the sector's data and parity
// regions.
func gather(dst, src []byte, start, interleave int) {
	for i, j := 0, start; i < len(dst); i, j = i+1, j+interleave {
		dst[i] = src[j]
	}
}

// scatter is gather's inverse.
func scatter(dst, src []byte, start, interleave int) {
	for i, j := 0, start; i < len(src); i, j = i+1, j+interleave {
		dst[j] = src[i]
	}
}

// blockErasuresFor projects erasures given as byte offsets into the data
// region onto one interleaved block's codeword positions. galois numbers a
// codeword's symbols parity first, so data symbol j of the block sits at
// position blockParity+j. The stream decoder passes no erasures.
func blockErasuresFor(erasures []int, block, interleave, blockParity int) []int {
	if len(erasures) == 0 {
		return nil
	}
	var out []int
	for _, e := range erasures {
		if e%interleave == block {
			out = append(out, blockParity+e/interleave)
		}
	}
	return out
}
