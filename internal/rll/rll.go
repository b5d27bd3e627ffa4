// Package rll implements the 8-to-9-bit run-length-limited line code used
// by EP mode: every data byte is expanded to a 9-bit codeword chosen from
// a fixed table, then differentially whitened so a long run of identical
// input bytes never produces a long run of identical bits on tape.
package rll

import "github.com/bugVanisher/bkrcodec/internal/bkrerrs"

// codewordMask keeps every encode table entry and every intermediate
// differential state within 9 bits.
const codewordMask = 0x1ff

// encodeTable maps each of the 256 possible data bytes to its 9-bit
// codeword. The table is fixed: every row was chosen so no codeword has
// more than a bounded run of identical bits, which is what keeps the line
// code's output within the recorder's run-length limits.
var encodeTable = [256]uint16{
	0x089, 0x08a, 0x08b, 0x08c, 0x08d, 0x08e, 0x091, 0x092,
	0x093, 0x094, 0x095, 0x096, 0x099, 0x09a, 0x09b, 0x09c,
	0x09d, 0x09e, 0x0a2, 0x0a3, 0x0a4, 0x0a5, 0x0a6, 0x0a9,
	0x0aa, 0x0ab, 0x0ac, 0x0ad, 0x0ae, 0x0b1, 0x0b2, 0x0b3,
	0x0b4, 0x0b5, 0x0b6, 0x0b9, 0x0ba, 0x0bb, 0x0bc, 0x0bd,
	0x0be, 0x0c2, 0x0c3, 0x0c4, 0x0c5, 0x0c6, 0x0c9, 0x0ca,
	0x0cb, 0x0cc, 0x0cd, 0x0ce, 0x0d1, 0x0d2, 0x0d3, 0x0d4,
	0x0d5, 0x0d6, 0x0d9, 0x0da, 0x0db, 0x0dc, 0x0dd, 0x0de,
	0x0e1, 0x0e2, 0x0e3, 0x0e4, 0x0e5, 0x0e6, 0x0e9, 0x0ea,
	0x0eb, 0x0ec, 0x0ed, 0x0ee, 0x0f1, 0x0f2, 0x0f3, 0x0f4,
	0x0f5, 0x0f6, 0x0f9, 0x0fa, 0x0fb, 0x0fc, 0x0fd, 0x109,
	0x10a, 0x10b, 0x10c, 0x10d, 0x10e, 0x111, 0x112, 0x113,
	0x114, 0x115, 0x116, 0x119, 0x11a, 0x11b, 0x11c, 0x11d,
	0x11e, 0x121, 0x122, 0x123, 0x124, 0x125, 0x126, 0x129,
	0x12a, 0x12b, 0x12c, 0x12d, 0x12e, 0x131, 0x132, 0x133,
	0x134, 0x135, 0x136, 0x139, 0x13a, 0x13b, 0x13c, 0x13d,
	0x13e, 0x142, 0x143, 0x144, 0x145, 0x146, 0x149, 0x14a,
	0x14b, 0x14c, 0x14d, 0x14e, 0x151, 0x152, 0x153, 0x154,
	0x155, 0x156, 0x159, 0x15a, 0x15b, 0x15c, 0x15d, 0x15e,
	0x161, 0x162, 0x163, 0x164, 0x165, 0x166, 0x169, 0x16a,
	0x16b, 0x16c, 0x16d, 0x16e, 0x171, 0x172, 0x173, 0x174,
	0x175, 0x176, 0x179, 0x17a, 0x17b, 0x17c, 0x17d, 0x17e,
	0x184, 0x185, 0x186, 0x189, 0x18a, 0x18b, 0x18c, 0x18d,
	0x18e, 0x191, 0x192, 0x193, 0x194, 0x195, 0x196, 0x199,
	0x19a, 0x19b, 0x19c, 0x19d, 0x19e, 0x1a1, 0x1a2, 0x1a3,
	0x1a4, 0x1a5, 0x1a6, 0x1a9, 0x1aa, 0x1ab, 0x1ac, 0x1ad,
	0x1ae, 0x1b1, 0x1b2, 0x1b3, 0x1b4, 0x1b5, 0x1b6, 0x1b9,
	0x1ba, 0x1bb, 0x1bc, 0x1bd, 0x1be, 0x1c2, 0x1c3, 0x1c4,
	0x1c5, 0x1c6, 0x1c9, 0x1ca, 0x1cb, 0x1cc, 0x1cd, 0x1ce,
	0x1d1, 0x1d2, 0x1d3, 0x1d4, 0x1d5, 0x1d6, 0x1d9, 0x1da,
	0x1db, 0x1dc, 0x1dd, 0x1de, 0x1e1, 0x1e2, 0x1e3, 0x1e4,
	0x1e5, 0x1e6, 0x1e9, 0x1ea, 0x1eb, 0x1ec, 0x1ed, 0x1ee,
}

// decodeTable is encodeTable's inverse, built once at init. Entries for
// codewords that never appear in encodeTable stay 0 with decodeValid false,
// so a corrupted codeword is detected rather than silently decoded.
var decodeTable [512]uint8
var decodeValid [512]bool

func init() {
	for b, word := range encodeTable {
		decodeTable[word] = uint8(b)
		decodeValid[word] = true
	}
}

// Modulate expands data into its RLL line-coded form: one 9-bit codeword
// per input byte, packed MSB-first into the output. Each codeword is
// differentially whitened against the raw table entry of the byte before
// it (XORed with all-ones whenever that entry's last bit was set). A byte
// whose table entry ends in a 0 bit leaves the next codeword unwhitened, so
// a repeat of such a byte transmits the same bit pattern again.
func Modulate(data []byte) []byte {
	out := make([]byte, (len(data)*9+7)/8)
	var bitPos uint
	var prevRaw uint16
	for i, b := range data {
		raw := encodeTable[b]
		var whiten uint16
		if i > 0 && prevRaw&1 != 0 {
			whiten = codewordMask
		}
		writeBits(out, bitPos, raw^whiten, 9)
		bitPos += 9
		prevRaw = raw
	}
	return out
}

// Demodulate is Modulate's inverse: it reads n 9-bit codewords back out of
// src, un-whitens each one against the raw table entry recovered from the
// symbol before it, and looks the result up in decodeTable. It returns a
// CodeBadSector-tagged error on the first codeword that never appears in
// encodeTable.
func Demodulate(src []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	var bitPos uint
	var prevRaw uint16
	for i := 0; i < n; i++ {
		word := readBits(src, bitPos, 9)
		bitPos += 9
		var whiten uint16
		if i > 0 && prevRaw&1 != 0 {
			whiten = codewordMask
		}
		raw := word ^ whiten
		if !decodeValid[raw] {
			return nil, bkrerrs.Newf(bkrerrs.CodeBadSector, "rll: invalid codeword at symbol %d", i)
		}
		out[i] = decodeTable[raw]
		prevRaw = raw
	}
	return out, nil
}

// writeBits writes the low nbits of v into dst starting at bit offset pos,
// most-significant bit first.
func writeBits(dst []byte, pos uint, v uint16, nbits uint) {
	for i := uint(0); i < nbits; i++ {
		bit := (v >> (nbits - 1 - i)) & 1
		p := pos + i
		byteIdx := p / 8
		shift := 7 - (p % 8)
		if bit != 0 {
			dst[byteIdx] |= 1 << shift
		} else {
			dst[byteIdx] &^= 1 << shift
		}
	}
}

// readBits reads nbits bits from src starting at bit offset pos,
// most-significant bit first.
func readBits(src []byte, pos uint, nbits uint) uint16 {
	var v uint16
	for i := uint(0); i < nbits; i++ {
		p := pos + i
		byteIdx := p / 8
		shift := 7 - (p % 8)
		var bit uint16
		if int(byteIdx) < len(src) && src[byteIdx]&(1<<shift) != 0 {
			bit = 1
		}
		v = (v << 1) | bit
	}
	return v
}
