package stream

import (
	"io"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/ecc2"
	"github.com/bugVanisher/bkrcodec/internal/format"
	"github.com/bugVanisher/bkrcodec/internal/frame"
	"github.com/bugVanisher/bkrcodec/internal/rll"
	"github.com/bugVanisher/bkrcodec/internal/sector"
)

// BORLengthSeconds and EORLengthSeconds set how long a record's
// beginning/end-of-record marker runs last, in seconds of sectors.
const (
	BORLengthSeconds = 5
	EORLengthSeconds = 1
)

// Config selects everything an Encode or Decode call needs beyond the
// byte streams themselves.
type Config struct {
	Mode     format.Mode
	StreamID uint8
}

// Option configures a Config; newConfig starts from NTSC/low/SP, stream
// 0, so callers only set what they need to change.
type Option func(*Config)

// WithMode selects the video mode, bit density and sector format.
func WithMode(m format.Mode) Option {
	return func(c *Config) { c.Mode = m }
}

// WithStreamID tags encoded sectors with the given 3-bit stream id.
func WithStreamID(id uint8) Option {
	return func(c *Config) { c.StreamID = id }
}

func newConfig(opts ...Option) Config {
	c := Config{Mode: format.Mode{Video: format.NTSC, Density: format.Low, Format: format.SP}}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// sectorsPerSecond is 2*fields_per_second, the rate BORLengthSeconds and
// EORLengthSeconds are counted in.
func sectorsPerSecond(v format.VideoMode) int {
	return 2 * v.FieldsPerSecond()
}

// Encode reads raw bytes from r, frames them into sectors (and, in EP
// mode, RLL-codes and outer-ECC-groups them), wraps each in its video
// field, and writes the resulting byte stream to w. It returns the total
// number of sectors written, counting BOR and EOR.
func Encode(w io.Writer, r io.Reader, opts ...Option) (int, error) {
	cfg := newConfig(opts...)
	f, err := format.Lookup(cfg.Mode)
	if err != nil {
		return 0, err
	}
	secCodec, err := sector.NewCodec(f)
	if err != nil {
		return 0, err
	}

	var group *ecc2.Group
	if f.Mode.Format == format.EP {
		group, err = ecc2.NewGroup(f.SectorSize)
		if err != nil {
			return 0, err
		}
	}

	e := &encoder{w: w, r: r, f: f, sec: secCodec, group: group, cfg: cfg}
	return e.run()
}

type encoder struct {
	w     io.Writer
	r     io.Reader
	f     *format.Format
	sec   *sector.Codec
	group *ecc2.Group
	cfg   Config

	fieldNumber int
	written     int
	pending     [][]byte // buffered data sectors awaiting a full ecc2 group
}

func (e *encoder) run() (int, error) {
	cap_ := sector.Capacity(e.f)
	num := int32(-sectorsPerSecond(e.f.Mode.Video) * BORLengthSeconds)

	for n := num; n < 0; n++ {
		if err := e.writeSector(nil, n); err != nil {
			return e.written, err
		}
	}

	buf := make([]byte, cap_)
	number := int32(0)
	for {
		n, err := io.ReadFull(e.r, buf)
		if n > 0 {
			if werr := e.writeSector(buf[:n], number); werr != nil {
				return e.written, werr
			}
			number++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return e.written, bkrerrs.Wrapf(err, "stream: reading source")
		}
	}

	if err := e.flushGroup(); err != nil {
		return e.written, err
	}

	eorCount := sectorsPerSecond(e.f.Mode.Video) * EORLengthSeconds
	for i := 0; i < eorCount; i++ {
		if err := e.writeSector(nil, number); err != nil {
			return e.written, err
		}
		number++
	}
	if err := e.flushGroup(); err != nil {
		return e.written, err
	}
	return e.written, nil
}

// writeSector encodes one sector (payload may be nil/short: BOR sectors
// and EOR sectors both carry no real payload) and routes it either
// straight to the frame layer (SP/LP) or into the current ecc2 group (EP).
func (e *encoder) writeSector(payload []byte, number int32) error {
	sec, err := e.sec.Encode(payload, number, e.cfg.StreamID)
	if err != nil {
		return err
	}
	if e.group == nil {
		return e.emitField(sec)
	}
	e.pending = append(e.pending, sec)
	if len(e.pending) == ecc2.DataCapacity {
		return e.flushGroup()
	}
	return nil
}

func (e *encoder) flushGroup() error {
	if e.group == nil || len(e.pending) == 0 {
		return nil
	}
	sectors, err := e.group.Encode(e.pending)
	if err != nil {
		return err
	}
	e.pending = e.pending[:0]
	for _, s := range sectors {
		if err := e.emitField(s); err != nil {
			return err
		}
	}
	return nil
}

// emitField turns one on-wire sector buffer into a video field: RLL
// modulation in EP mode, then leader/key/trailer framing, written
// straight through to the destination writer.
func (e *encoder) emitField(sec []byte) error {
	content := sec
	if e.f.RLL {
		content = rll.Modulate(sec)
	}
	field := frame.EncodeField(e.f, e.fieldNumber, content)
	if _, err := e.w.Write(field); err != nil {
		return bkrerrs.Wrapf(err, "stream: writing field")
	}
	e.fieldNumber++
	e.written++
	return nil
}
