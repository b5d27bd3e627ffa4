package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/bkrcodec/internal/ecc2"
	"github.com/bugVanisher/bkrcodec/internal/format"
	"github.com/bugVanisher/bkrcodec/internal/frame"
	"github.com/bugVanisher/bkrcodec/internal/sector"
)

func spLow() format.Mode {
	return format.Mode{Video: format.NTSC, Density: format.Low, Format: format.SP}
}

func epLow() format.Mode {
	return format.Mode{Video: format.NTSC, Density: format.Low, Format: format.EP}
}

func roundTrip(t *testing.T, mode format.Mode, payload []byte) ([]byte, Report) {
	t.Helper()
	var wire bytes.Buffer
	_, err := Encode(&wire, bytes.NewReader(payload), WithMode(mode), WithStreamID(3))
	require.Nil(t, err)

	var out bytes.Buffer
	report, err := Decode(&out, bytes.NewReader(wire.Bytes()), false, WithMode(mode))
	require.Nil(t, err)
	return out.Bytes(), report
}

func TestEncodeDecodeRoundTripSP(t *testing.T) {
	f, err := format.Lookup(spLow())
	require.Nil(t, err)
	cap_ := sector.Capacity(f)

	payload := make([]byte, cap_*3+17)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	got, report := roundTrip(t, spLow(), payload)
	require.Equal(t, payload, got)
	require.Equal(t, uint64(0), report.Counters.BadSectors)
	require.Equal(t, uint64(0), report.Counters.Uncorrectable)
}

func TestEncodeDecodeRoundTripEmptyPayload(t *testing.T) {
	got, report := roundTrip(t, spLow(), nil)
	require.Equal(t, 0, len(got))
	require.Equal(t, uint64(0), report.Counters.BadSectors)
}

func TestEncodeDecodeRoundTripEP(t *testing.T) {
	f, err := format.Lookup(epLow())
	require.Nil(t, err)
	cap_ := sector.Capacity(f)

	payload := make([]byte, cap_*5+3)
	for i := range payload {
		payload[i] = byte(i*13 + 1)
	}

	got, report := roundTrip(t, epLow(), payload)
	require.Equal(t, payload, got)
	require.Equal(t, uint64(0), report.Counters.Uncorrectable)
}

func TestEncodeDecodeRoundTripEPFullGroup(t *testing.T) {
	f, err := format.Lookup(epLow())
	require.Nil(t, err)
	cap_ := sector.Capacity(f)

	payload := make([]byte, cap_*(ecc2.DataCapacity+10))
	for i := range payload {
		payload[i] = byte(i * 3)
	}

	got, report := roundTrip(t, epLow(), payload)
	require.Equal(t, payload, got)
	require.Equal(t, uint64(0), report.Counters.Uncorrectable)
}

func TestDecodeSkipBadAllowsUncorrectableSector(t *testing.T) {
	f, err := format.Lookup(spLow())
	require.Nil(t, err)
	cap_ := sector.Capacity(f)

	payload := make([]byte, cap_*2)
	for i := range payload {
		payload[i] = byte(i * 5)
	}

	var wire bytes.Buffer
	_, err = Encode(&wire, bytes.NewReader(payload), WithMode(spLow()))
	require.Nil(t, err)

	raw := wire.Bytes()
	borFields := sectorsPerSecond(spLow().Video) * BORLengthSeconds
	activeOffset := locateNthFieldActive(t, raw, f, borFields)

	// Smash every non-key byte of the first payload field's active area:
	// leaves frame lock intact (key bytes untouched) but pushes the
	// sector's RS blocks far past their correction budget.
	active := raw[activeOffset : activeOffset+f.ActiveSize]
	for i := range active {
		if i%f.KeyInterval == 0 {
			continue
		}
		active[i] ^= 0xff
	}

	var out bytes.Buffer
	_, err = Decode(&out, bytes.NewReader(raw), false, WithMode(spLow()))
	require.NotNil(t, err)

	out.Reset()
	report, err := Decode(&out, bytes.NewReader(raw), true, WithMode(spLow()))
	require.Nil(t, err)
	require.True(t, report.Counters.BadSectors > 0)
}

// locateNthFieldActive walks raw the same way the decoder does, via
// repeated frame.Locate calls, and returns the absolute byte offset of the
// n-th (0-indexed) field's active area.
func locateNthFieldActive(t *testing.T, raw []byte, f *format.Format, n int) int {
	t.Helper()
	window := raw
	consumed := 0
	for i := 0; ; i++ {
		offset, _, found := frame.Locate(window, f)
		require.True(t, found)
		if i == n {
			return consumed + offset
		}
		window = window[offset+f.ActiveSize:]
		consumed += offset + f.ActiveSize
	}
}
