// Package ecc2 implements the outer, EP-only Reed-Solomon layer: a second
// code spread across a group of 255 sectors, able to recover a handful of
// whole sectors lost to the inner sector codec.
package ecc2

import (
	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/galois"
)

// GroupSize is the outer code length: a group is always exactly 255
// sectors, one codeword per byte column across them.
const GroupSize = 255

// Parity is the outer code's parity symbol count, n-k.
const Parity = 20

// DataSectors is how many of the 255 sectors in a group carry data (as
// opposed to outer parity).
const DataSectors = GroupSize - Parity

// DataCapacity is how many of the DataSectors slots a caller may fill with
// real, already inner-coded sector buffers. The last data slot is always
// reserved as a trailer recording how many of the others are real, so a
// short final group (end of stream mid-group) can be told apart from a
// full one without guessing.
const DataCapacity = DataSectors - 1

// Filler pads sector slots a short final group never filled.
const Filler = 0x33

// lengthSize is the width of the trailing little-endian real-sector-count
// marker recorded in the last bytes of a (possibly short) group's data
// region, so the decoder knows how many of the DataSectors slots were real
// sectors rather than end-of-stream filler.
const lengthSize = 4

// Group encodes and decodes one 255-sector group for a fixed per-sector
// buffer width (capacity): the full on-wire width of one already
// inner-coded sector, since the outer code protects whole sectors, not
// their raw payload.
type Group struct {
	capacity int
	rs       *galois.Codec
}

// NewGroup builds a Group codec for sectors of the given on-wire width.
func NewGroup(capacity int) (*Group, error) {
	if capacity < lengthSize {
		return nil, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ecc2: sector width too small for group trailer")
	}
	rs, err := galois.NewCodec(GroupSize, DataSectors)
	if err != nil {
		return nil, bkrerrs.Wrapf(err, "ecc2: building outer RS codec")
	}
	return &Group{capacity: capacity, rs: rs}, nil
}

// Capacity returns the per-sector byte width this Group was built for.
func (g *Group) Capacity() int { return g.capacity }

// Encode takes up to DataCapacity already-encoded sector buffers (each
// exactly g.Capacity() bytes; fewer than DataCapacity only at end of
// stream, when the source ran out of sectors mid-group) and returns all
// GroupSize sectors: the real ones unchanged, any missing slots (including
// the reserved trailer slot) filled with Filler, and Parity outer-parity
// sectors appended. The trailer slot's last lengthSize bytes are
// overwritten with a count of how many of the input sectors were real, so
// Decode can tell real data from end-of-stream filler.
func (g *Group) Encode(sectors [][]byte) ([][]byte, error) {
	if len(sectors) > DataCapacity {
		return nil, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "ecc2: %d sectors exceeds group data capacity %d", len(sectors), DataCapacity)
	}
	for _, s := range sectors {
		if len(s) != g.capacity {
			return nil, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ecc2: sector width mismatch")
		}
	}

	out := make([][]byte, GroupSize)
	for i := 0; i < DataSectors; i++ {
		buf := make([]byte, g.capacity)
		if i < len(sectors) {
			copy(buf, sectors[i])
		} else {
			for j := range buf {
				buf[j] = Filler
			}
		}
		out[i] = buf
	}
	putCount(out[DataSectors-1], uint32(len(sectors)))
	for i := DataSectors; i < GroupSize; i++ {
		out[i] = make([]byte, g.capacity)
	}

	col := make([]byte, GroupSize)
	for c := 0; c < g.capacity; c++ {
		for row := 0; row < DataSectors; row++ {
			col[row] = out[row][c]
		}
		parity := col[DataSectors:]
		g.rs.Encode(col[:DataSectors], parity)
		for row := DataSectors; row < GroupSize; row++ {
			out[row][c] = col[row]
		}
	}
	return out, nil
}

// Decode corrects a group of GroupSize sectors in place given the list of
// sector indices already known lost (erasures, at most Parity of them),
// and returns the real (non-filler) data sectors plus the total symbol
// corrections applied across all capacity columns.
func (g *Group) Decode(sectors [][]byte, erasures []int) ([][]byte, int, error) {
	if len(sectors) != GroupSize {
		return nil, 0, bkrerrs.Newf(bkrerrs.CodeMalformedCodec, "ecc2: expected %d sectors, got %d", GroupSize, len(sectors))
	}
	for _, s := range sectors {
		if len(s) != g.capacity {
			return nil, 0, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ecc2: sector width mismatch")
		}
	}
	if len(erasures) > Parity {
		return nil, 0, bkrerrs.New(bkrerrs.CodeUncorrectable, "ecc2: more erasures than parity budget")
	}
	// galois.Codec.Decode numbers erasures parity-symbols-first, then data
	// symbols, matching Encode's codeword layout; our caller numbers them
	// by row position in the 255-sector group (data rows first, parity
	// rows last), so translate before calling in.
	rsErasures := make([]int, len(erasures))
	for i, e := range erasures {
		if e < DataSectors {
			rsErasures[i] = Parity + e
		} else {
			rsErasures[i] = e - DataSectors
		}
	}

	total := 0
	uncorrectable := 0
	col := make([]byte, GroupSize)
	for c := 0; c < g.capacity; c++ {
		for row := 0; row < GroupSize; row++ {
			col[row] = sectors[row][c]
		}
		data := col[:DataSectors]
		parity := col[DataSectors:]
		n, err := g.rs.Decode(data, parity, rsErasures)
		if err != nil {
			uncorrectable++
			continue
		}
		total += n
		for row := 0; row < DataSectors; row++ {
			sectors[row][c] = data[row]
		}
	}
	if uncorrectable > 0 {
		return nil, total, bkrerrs.Newf(bkrerrs.CodeUncorrectable, "ecc2: %d of %d columns uncorrectable", uncorrectable, g.capacity)
	}

	count, err := getCount(sectors[DataSectors-1])
	if err != nil {
		return nil, total, err
	}
	return sectors[:count], total, nil
}

func putCount(lastDataSector []byte, count uint32) {
	off := len(lastDataSector) - lengthSize
	lastDataSector[off] = byte(count)
	lastDataSector[off+1] = byte(count >> 8)
	lastDataSector[off+2] = byte(count >> 16)
	lastDataSector[off+3] = byte(count >> 24)
}

func getCount(lastDataSector []byte) (int, error) {
	off := len(lastDataSector) - lengthSize
	v := uint32(lastDataSector[off]) | uint32(lastDataSector[off+1])<<8 | uint32(lastDataSector[off+2])<<16 | uint32(lastDataSector[off+3])<<24
	if v > DataCapacity {
		return 0, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ecc2: decoded sector count exceeds group data capacity")
	}
	return int(v), nil
}
