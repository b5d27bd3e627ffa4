package sector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/bkrcodec/internal/format"
)

func nhs(t *testing.T) *format.Format {
	f, err := format.Lookup(format.Mode{Video: format.NTSC, Density: format.High, Format: format.SP})
	require.Nil(t, err)
	return f
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Number: -12345, LowUsed: 9, StreamID: 5}
	buf := make([]byte, 4)
	PutHeader(buf, h)
	got := GetHeader(buf)
	require.Equal(t, h, got)
}

func TestHeaderSignExtension(t *testing.T) {
	h := Header{Number: -1, LowUsed: 0, StreamID: 0}
	buf := make([]byte, 4)
	PutHeader(buf, h)
	got := GetHeader(buf)
	require.Equal(t, int32(-1), got.Number)
}

func TestEncodeDecodeLengthInvertible(t *testing.T) {
	f := nhs(t)
	cap_ := Capacity(f)
	for l := 0; l <= cap_; l += 37 {
		e := EncodeLength(l)
		got := DecodeLength(e>>4, e&0xf)
		require.Equal(t, l, got, "length %d", l)
	}
	// also check capacity itself and capacity-1
	for _, l := range []int{cap_ - 1, cap_} {
		e := EncodeLength(l)
		got := DecodeLength(e>>4, e&0xf)
		require.Equal(t, l, got, "length %d", l)
	}
}

func TestRandomizeIsInvolution(t *testing.T) {
	buf := make([]byte, 2160)
	for i := range buf {
		buf[i] = byte(i * 13)
	}
	want := append([]byte(nil), buf...)
	Randomize(buf, 42)
	require.NotEqual(t, want, buf)
	Randomize(buf, 42)
	require.Equal(t, want, buf)
}

func TestSectorCodecRoundTripFullPayload(t *testing.T) {
	f := nhs(t)
	c, err := NewCodec(f)
	require.Nil(t, err)

	cap_ := Capacity(f)
	payload := make([]byte, cap_)
	for i := range payload {
		payload[i] = byte(i)
	}
	sec, err := c.Encode(payload, 7, 3)
	require.Nil(t, err)
	require.Equal(t, f.SectorSize, len(sec))

	got, n, h, err := c.Decode(sec, nil)
	require.Nil(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, int32(7), h.Number)
	require.Equal(t, uint8(3), h.StreamID)
	require.Equal(t, payload, got)
}

func TestSectorCodecRoundTripEmptyPayload(t *testing.T) {
	f := nhs(t)
	c, err := NewCodec(f)
	require.Nil(t, err)

	sec, err := c.Encode(nil, 0, 0)
	require.Nil(t, err)

	got, _, h, err := c.Decode(sec, nil)
	require.Nil(t, err)
	require.Equal(t, 0, len(got))
	require.Equal(t, int32(0), h.Number)
}

func TestSectorCodecCorrectsSingleBitError(t *testing.T) {
	f := nhs(t)
	c, err := NewCodec(f)
	require.Nil(t, err)

	payload := make([]byte, Capacity(f))
	for i := range payload {
		payload[i] = byte(i * 5)
	}
	sec, err := c.Encode(payload, 100, 1)
	require.Nil(t, err)

	sec[50] ^= 0x01

	got, n, _, err := c.Decode(sec, nil)
	require.Nil(t, err)
	require.True(t, n >= 1)
	require.Equal(t, payload, got)
}

func TestSectorCodecRejectsOversizePayload(t *testing.T) {
	f := nhs(t)
	c, err := NewCodec(f)
	require.Nil(t, err)
	_, err = c.Encode(make([]byte, Capacity(f)+1), 0, 0)
	require.NotNil(t, err)
}
