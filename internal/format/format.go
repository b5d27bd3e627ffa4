// Package format holds the static table that maps a (video mode, bit
// density, sector format) triple onto the exact byte geometry the rest of
// the codec pipeline is built around: field/frame sizes, leader/trailer
// framing, key-sequence spacing, and per-sector ECC/RLL parameters.
package format

import "fmt"

// VideoMode selects the raster timing of the target recorder.
type VideoMode int

const (
	NTSC VideoMode = iota
	PAL
)

func (v VideoMode) String() string {
	if v == PAL {
		return "PAL"
	}
	return "NTSC"
}

// FieldsPerSecond is the raw field rate for a video mode, used to derive
// the BOR/EOR sector counts (spec §4.2's "sectors-per-second = 2 *
// fields_per_second").
func (v VideoMode) FieldsPerSecond() int {
	if v == PAL {
		return 50
	}
	return 60
}

// BitDensity selects the tape recording density.
type BitDensity int

const (
	Low BitDensity = iota
	High
)

func (d BitDensity) String() string {
	if d == High {
		return "high"
	}
	return "low"
}

// SectorFormat selects how a sector is built on top of the raw raster.
type SectorFormat int

const (
	Raw SectorFormat = iota // no sector framing at all, bytes pass straight through
	SP                      // standard play: per-sector Reed-Solomon only
	EP                      // extended play: RLL line code + outer group ECC on top of SP
)

func (f SectorFormat) String() string {
	switch f {
	case SP:
		return "SP"
	case EP:
		return "EP"
	default:
		return "RAW"
	}
}

// Mode bit values, as exposed through /proc and mtio's MTIOCGET.mt_dsreg
// field on the original driver.
const (
	ModeBitNTSC = 1 << 0
	ModeBitPAL  = 1 << 1
	ModeBitLow  = 1 << 2
	ModeBitHigh = 1 << 3
	ModeBitRaw  = 0
	ModeBitSP   = 1 << 4
	ModeBitEP   = 1 << 5
)

// Mode is the triple that selects one row of the format table.
type Mode struct {
	Video   VideoMode
	Density BitDensity
	Format  SectorFormat
}

// Bits encodes the mode as the bitfield used by /proc and mtio.
func (m Mode) Bits() uint32 {
	var bits uint32
	if m.Video == PAL {
		bits |= ModeBitPAL
	} else {
		bits |= ModeBitNTSC
	}
	if m.Density == High {
		bits |= ModeBitHigh
	} else {
		bits |= ModeBitLow
	}
	switch m.Format {
	case SP:
		bits |= ModeBitSP
	case EP:
		bits |= ModeBitEP
	}
	return bits
}

func (m Mode) String() string {
	return fmt.Sprintf("%s-%s-%s", m.Video, m.Density, m.Format)
}

// Format is the fully resolved byte geometry for one Mode.
type Format struct {
	Mode Mode

	// Raster/frame geometry.
	BytesPerLine int
	FieldSize    int
	Interlace    int
	FrameSize    int
	Leader       int
	Trailer      int
	ActiveSize   int
	KeyInterval  int
	KeyLength    int

	// Sector/ECC geometry.
	RLL           bool
	ModulationPad int
	Interleave    int
	ParitySize    int
	DataSize      int // size of the data portion of one sector, header included
	SectorSize    int // DataSize + ParitySize, the full on-tape sector buffer
}

type rasterRow struct {
	bytesPerLine int
	fieldSize    int
	leader       int
	trailer      int
	keyInterval  int
}

// rasterTable holds the frame/field raster geometry, keyed by density and
// video mode. The low-NTSC-EP, high-NTSC-SP and high-PAL-EP rows are the
// values a format table of this lineage is built from; the remaining
// low-PAL row is extrapolated from the high-density NTSC/PAL ratio (see
// DESIGN.md), since nothing pins it to an exact constant.
var rasterTable = map[BitDensity]map[VideoMode]rasterRow{
	Low: {
		NTSC: {bytesPerLine: 4, fieldSize: 1012, leader: 40, trailer: 32, keyInterval: 42},
		PAL:  {bytesPerLine: 4, fieldSize: 1220, leader: 48, trailer: 38, keyInterval: 51},
	},
	High: {
		NTSC: {bytesPerLine: 10, fieldSize: 2530, leader: 80, trailer: 70, keyInterval: 119},
		PAL:  {bytesPerLine: 10, fieldSize: 3050, leader: 120, trailer: 90, keyInterval: 88},
	},
}

type eccRow struct {
	rll        bool
	dataSize   int
	interleave int
	paritySize int
}

// eccTable holds the sector-level ECC/RLL geometry, keyed by density and
// sector format. It does not vary by video mode: the same sector layout is
// recorded whether the raster underneath it is NTSC or PAL.
var eccTable = map[BitDensity]map[SectorFormat]eccRow{
	Low: {
		SP: {rll: false, dataSize: 680, interleave: 6, paritySize: 60},
		EP: {rll: true, dataSize: 720, interleave: 12, paritySize: 96},
	},
	High: {
		SP: {rll: false, dataSize: 2160, interleave: 20, paritySize: 200},
		EP: {rll: true, dataSize: 2288, interleave: 26, paritySize: 208},
	},
}

// modulatedSize returns how many bytes a cap-byte on-wire sector occupies
// once RLL-modulated (8-to-9-bit expansion), or cap unchanged if rll is
// false.
func modulatedSize(cap_ int, rll bool) int {
	if !rll {
		return cap_
	}
	return (cap_*9 + 7) / 8
}

// solveActiveSize finds the smallest active_size whose field packing (one
// key byte leading every key_interval-byte chunk, floor(active/keyInterval)
// full chunks plus one final partial or full chunk, per EncodeField) leaves
// exactly modulated bytes of room for sector data: that packing spends
// key_length = active/keyInterval + 1 bytes on key bytes, so
// active - active/keyInterval - 1 == modulated. The left side is
// non-decreasing and climbs by at most 1 per unit of active, so it takes
// every value without skipping any; the search always terminates.
func solveActiveSize(modulated, keyInterval int) int {
	for active := modulated + 1; ; active++ {
		if active-active/keyInterval-1 == modulated {
			return active
		}
	}
}

// Lookup resolves a Mode to its Format row.
func Lookup(m Mode) (*Format, error) {
	raster, ok := rasterTable[m.Density][m.Video]
	if !ok {
		return nil, fmt.Errorf("format: no raster geometry for %s", m)
	}

	f := &Format{
		Mode:         m,
		BytesPerLine: raster.bytesPerLine,
		FieldSize:    raster.fieldSize,
	}
	if m.Video == NTSC {
		f.Interlace = f.BytesPerLine
	}
	f.FrameSize = 2*f.FieldSize + f.Interlace

	if m.Format == Raw {
		// Raw mode carries no sector framing: the whole field is payload.
		f.Leader = 0
		f.Trailer = 0
		f.ActiveSize = f.FieldSize
		f.KeyInterval = 0
		f.KeyLength = 0
		f.DataSize = f.ActiveSize
		f.ParitySize = 0
		f.Interleave = 1
		f.ModulationPad = 0
		return f, nil
	}

	f.Leader = raster.leader
	f.Trailer = raster.trailer
	f.KeyInterval = raster.keyInterval

	ecc, ok := eccTable[m.Density][m.Format]
	if !ok {
		return nil, fmt.Errorf("format: no ecc geometry for %s", m)
	}
	f.RLL = ecc.rll
	f.DataSize = ecc.dataSize
	f.Interleave = ecc.interleave
	f.ParitySize = ecc.paritySize
	f.SectorSize = f.DataSize + f.ParitySize

	// active_size is sized so the field has exactly enough room, after key
	// bytes are pulled out every key_interval bytes, for one on-wire sector
	// (RLL-expanded first, in EP mode). field_size and frame_size follow
	// from that, rather than from a fixed per-raster constant, since the
	// same leader/trailer/key_interval row serves both SP and EP formats
	// but EP's line code needs more active bytes to carry the same sector.
	modulated := modulatedSize(f.SectorSize, f.RLL)
	f.ActiveSize = solveActiveSize(modulated, f.KeyInterval)
	f.KeyLength = f.ActiveSize/f.KeyInterval + 1
	f.ModulationPad = f.ActiveSize - f.SectorSize
	f.FieldSize = f.ActiveSize + f.Leader + f.Trailer
	f.FrameSize = 2*f.FieldSize + f.Interlace

	return f, nil
}

// All enumerates the full 12-row table (2 densities x 2 video modes x 3
// sector formats) in a stable order, for diagnostics and the CLI's
// "modes" subcommand.
func All() []*Format {
	var rows []*Format
	for _, density := range []BitDensity{Low, High} {
		for _, video := range []VideoMode{NTSC, PAL} {
			for _, sf := range []SectorFormat{Raw, SP, EP} {
				f, err := Lookup(Mode{Video: video, Density: density, Format: sf})
				if err != nil {
					continue
				}
				rows = append(rows, f)
			}
		}
	}
	return rows
}
