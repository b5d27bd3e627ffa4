package stream

import (
	"io"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/ecc2"
	"github.com/bugVanisher/bkrcodec/internal/format"
	"github.com/bugVanisher/bkrcodec/internal/frame"
	"github.com/bugVanisher/bkrcodec/internal/rll"
	"github.com/bugVanisher/bkrcodec/internal/sector"
	"github.com/bugVanisher/bkrcodec/internal/stats"
)

// Report summarizes one Decode call's health counters, returned alongside
// any fatal error so a caller can print partial statistics even when a
// stream ends abnormally.
type Report struct {
	Counters stats.Counters
	Frame    stats.FrameHealth
	Sectors  int
}

// Decode locates fields in the byte stream read from r, strips their
// framing, reverses the RLL and outer-ECC layers in EP mode, decodes each
// sector, and writes recovered payload bytes to w in sector-number order.
// It stops at end of input. EOR marker sectors are decoded like any other
// sector (their payload is empty) and do not end the decode; anything
// after them in the input is still decoded. skipBad, when
// true, makes an uncorrectable sector's payload silently dropped rather
// than aborting the whole decode.
func Decode(w io.Writer, r io.Reader, skipBad bool, opts ...Option) (Report, error) {
	cfg := newConfig(opts...)
	f, err := format.Lookup(cfg.Mode)
	if err != nil {
		return Report{}, err
	}
	secCodec, err := sector.NewCodec(f)
	if err != nil {
		return Report{}, err
	}
	var group *ecc2.Group
	if f.Mode.Format == format.EP {
		group, err = ecc2.NewGroup(f.SectorSize)
		if err != nil {
			return Report{}, err
		}
	}

	d := &decoder{
		w: w, r: r, f: f, sec: secCodec, group: group,
		skipBad: skipBad,
		seq:     sector.NewSequencer(),
		fstats:  frame.NewStats(f.KeyLength),
	}
	err = d.run()
	report := Report{Counters: d.counters, Sectors: d.written}
	report.Frame = stats.FrameHealth{
		WorstKey:    d.fstats.WorstKey,
		BestNonKey:  d.fstats.BestNonKey,
		SmallestGap: d.fstats.SmallestGap,
		LargestGap:  d.fstats.LargestGap,
		FrameErrors: d.fstats.FrameErrors,
	}
	return report, err
}

type decoder struct {
	w     io.Writer
	r     io.Reader
	f     *format.Format
	sec   *sector.Codec
	group *ecc2.Group

	skipBad bool
	seq     *sector.Sequencer
	fstats  *frame.Stats

	window []byte
	atEOF  bool

	groupSectors [][]byte
	groupErasure []int

	counters stats.Counters
	written  int
}

// minWindow is how many bytes the field locator wants available before it
// gives up on finding a candidate and asks for more input; generous enough
// to always contain at least one whole field.
func (d *decoder) minWindow() int {
	return d.f.Leader + d.f.ActiveSize + d.f.Trailer + d.f.Interlace + d.f.FrameSize
}

func (d *decoder) fill() error {
	if d.atEOF {
		return nil
	}
	chunk := make([]byte, 64*1024)
	n, err := d.r.Read(chunk)
	if n > 0 {
		d.window = append(d.window, chunk[:n]...)
	}
	if err == io.EOF {
		d.atEOF = true
		return nil
	}
	if err != nil {
		return bkrerrs.Wrapf(err, "stream: reading source")
	}
	return nil
}

func (d *decoder) run() error {
	for {
		for len(d.window) < d.minWindow() && !d.atEOF {
			if err := d.fill(); err != nil {
				return err
			}
		}
		offset, score, found := frame.Locate(d.window, d.f)
		if !found {
			if d.atEOF {
				break
			}
			if err := d.fill(); err != nil {
				return err
			}
			continue
		}
		if offset+d.f.ActiveSize > len(d.window) {
			if d.atEOF {
				break
			}
			if err := d.fill(); err != nil {
				return err
			}
			continue
		}
		// offset counts from the end of the previous field's active area,
		// so adding ActiveSize gives the spacing between active-area starts.
		d.fstats.Observe(score, offset+d.f.ActiveSize, d.f.FieldSize)

		active := d.window[offset : offset+d.f.ActiveSize]
		content := frame.DecodeField(d.f, active)
		d.window = d.window[offset+d.f.ActiveSize:]

		if err := d.handleField(content); err != nil {
			return err
		}
	}
	return d.flushGroup()
}

// handleField reverses RLL (EP only) and routes the recovered sector
// buffer either straight to sector decode (SP/LP) or into the current
// outer-ECC group (EP).
func (d *decoder) handleField(content []byte) error {
	sec := content
	if d.f.RLL {
		plain, err := rll.Demodulate(content, d.f.SectorSize)
		if err != nil {
			d.counters.BadSectors++
			if d.group != nil {
				d.addGroupSector(nil)
			}
			return nil
		}
		sec = plain
	}
	if d.group == nil {
		return d.decodeSector(sec)
	}
	return d.addGroupSector(sec)
}

func (d *decoder) addGroupSector(sec []byte) error {
	idx := len(d.groupSectors)
	if sec == nil {
		sec = make([]byte, d.f.SectorSize)
		for i := range sec {
			sec[i] = ecc2.Filler
		}
		d.groupErasure = append(d.groupErasure, idx)
	}
	d.groupSectors = append(d.groupSectors, sec)
	if len(d.groupSectors) == ecc2.GroupSize {
		return d.flushGroup()
	}
	return nil
}

func (d *decoder) flushGroup() error {
	if d.group == nil || len(d.groupSectors) == 0 {
		return nil
	}
	sectors := d.groupSectors
	erasures := d.groupErasure
	d.groupSectors = nil
	d.groupErasure = nil

	for len(sectors) < ecc2.GroupSize {
		filler := make([]byte, d.f.SectorSize)
		for i := range filler {
			filler[i] = ecc2.Filler
		}
		erasures = append(erasures, len(sectors))
		sectors = append(sectors, filler)
	}

	real, n, err := d.group.Decode(sectors, erasures)
	d.counters.SymbolsCorrected += uint64(n)
	if err != nil {
		d.counters.Uncorrectable++
		if !d.skipBad {
			return err
		}
		return nil
	}
	for _, s := range real {
		if err := d.decodeSector(s); err != nil {
			return err
		}
	}
	return nil
}

// decodeSector runs one inner-coded sector buffer through sector.Codec,
// feeds its header through the sequence protocol, and writes its payload
// (empty for BOR/EOR marker sectors) to the output. An uncorrectable
// sector is counted and, when skipBad is set, silently dropped instead of
// aborting the decode.
func (d *decoder) decodeSector(sec []byte) error {
	payload, n, h, err := d.sec.Decode(sec, nil)
	d.counters.SymbolsCorrected += uint64(n)
	if err != nil {
		d.counters.BadSectors++
		d.seq.Observe(0, false)
		if d.skipBad {
			return nil
		}
		return err
	}

	ev := d.seq.Observe(h.Number, true)
	switch ev.Kind {
	case sector.EventDuplicate:
		return nil
	case sector.EventSkip:
		d.counters.SkippedSectors += uint64(ev.Skipped)
	}

	if _, err := d.w.Write(payload); err != nil {
		return bkrerrs.Wrapf(err, "stream: writing output")
	}
	d.written++
	return nil
}
