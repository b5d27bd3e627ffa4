package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/bkrcodec/internal/format"
)

func lowSP(t *testing.T) *format.Format {
	f, err := format.Lookup(format.Mode{Video: format.NTSC, Density: format.Low, Format: format.SP})
	require.Nil(t, err)
	return f
}

func TestEncodeDecodeFieldRoundTrip(t *testing.T) {
	f := lowSP(t)
	src := make([]byte, f.ActiveSize-f.KeyLength)
	for i := range src {
		src[i] = byte(i)
	}
	field := EncodeField(f, 0, src)
	require.Equal(t, f.Leader+f.ActiveSize+f.Trailer, len(field))

	got := DecodeField(f, field[f.Leader:f.Leader+f.ActiveSize])
	require.Equal(t, src, got)
}

func TestEncodeFieldOddNumberAddsInterlaceTrailer(t *testing.T) {
	f := lowSP(t)
	src := make([]byte, f.ActiveSize-f.KeyLength)
	even := EncodeField(f, 0, src)
	odd := EncodeField(f, 1, src)
	require.Equal(t, len(even)+f.Interlace, len(odd))
}

func TestCorrelatePerfectMatch(t *testing.T) {
	f := lowSP(t)
	src := make([]byte, f.ActiveSize-f.KeyLength)
	field := EncodeField(f, 0, src)
	active := field[f.Leader:]
	score := Correlate(active, f.KeyInterval, f.KeyLength)
	require.Equal(t, f.KeyLength, score)
}

func TestCorrelateRandomDataScoresLow(t *testing.T) {
	f := lowSP(t)
	junk := make([]byte, f.ActiveSize)
	for i := range junk {
		junk[i] = byte(i * 97)
	}
	score := Correlate(junk, f.KeyInterval, f.KeyLength)
	require.True(t, score < Threshold(f))
}

func TestLocateFindsExactFieldStart(t *testing.T) {
	f := lowSP(t)
	src := make([]byte, f.ActiveSize-f.KeyLength)
	for i := range src {
		src[i] = byte(i * 3)
	}
	field := EncodeField(f, 0, src)

	buf := make([]byte, 10)
	buf = append(buf, field...)

	offset, score, found := Locate(buf, f)
	require.True(t, found)
	require.Equal(t, f.Leader+10, offset)
	require.True(t, score >= Threshold(f))
}

func TestLocateReportsNotFoundOnShortBuffer(t *testing.T) {
	f := lowSP(t)
	buf := make([]byte, f.ActiveSize-1)
	_, _, found := Locate(buf, f)
	require.False(t, found)
}

func TestStatsObserveTracksWorstKeyAndGaps(t *testing.T) {
	s := NewStats(100)
	s.Observe(90, 0, 1000)
	s.Observe(80, 1000, 1000)
	s.Observe(95, 1000, 1000)
	require.Equal(t, 80, s.WorstKey)
	require.Equal(t, 1000, s.SmallestGap)
	require.Equal(t, 1000, s.LargestGap)
	require.Equal(t, 0, s.FrameErrors)
}

func TestStatsObserveFlagsLargeGapAsFrameError(t *testing.T) {
	s := NewStats(100)
	s.Observe(90, 0, 1000)
	s.Observe(90, 2000, 1000)
	require.Equal(t, 1, s.FrameErrors)
}

func TestStatsObserveNonKeyTracksBest(t *testing.T) {
	s := NewStats(100)
	s.ObserveNonKey(10)
	s.ObserveNonKey(25)
	s.ObserveNonKey(5)
	require.Equal(t, 25, s.BestNonKey)
}
