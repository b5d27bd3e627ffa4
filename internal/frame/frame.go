// Package frame builds and locks onto the video field framing that
// carries one sector: leader fill, a stream of key bytes interleaved with
// sector data at a fixed stride, and trailer fill.
package frame

import "github.com/bugVanisher/bkrcodec/internal/format"

// Leader and Trailer are the fixed fill bytes framing every field.
const (
	Leader  = 0xe2
	Trailer = 0x33
)

// KeySequence is the fixed 32-byte pattern cyclically sampled for the key
// byte at the head of each key_interval-sized chunk of a field's active
// area. It was chosen for high Hamming distance from typical randomized
// data and good autocorrelation, so a partial match is a strong signal of
// a true field boundary.
var KeySequence = [32]byte{
	0xd4, 0x7c, 0xb1, 0x93, 0x66, 0x65, 0x6a, 0xb5,
	0x63, 0xe4, 0x56, 0x59, 0x6c, 0xbe, 0xc5, 0xca,
	0xf4, 0x9c, 0xa3, 0xac, 0x6d, 0xb3, 0xd2, 0x7e,
	0x74, 0xa6, 0xe1, 0xa9, 0x5c, 0x9a, 0x4b, 0x5d,
}

// ThresholdNumerator and ThresholdDenominator set the fraction of
// key_length matching bytes required to accept a candidate field start:
// key_length * 21 / 64.
const (
	ThresholdNumerator   = 21
	ThresholdDenominator = 64
)

// Threshold returns the minimum correlation score f.KeyLength*21/64 accepts
// as a field lock.
func Threshold(f *format.Format) int {
	return f.KeyLength * ThresholdNumerator / ThresholdDenominator
}

// EncodeField lays src (exactly f.ActiveSize bytes) out as one video
// field: leader fill, then f.KeyLength chunks each starting with a key
// byte followed by key_interval-1 (or, for the last, short) data bytes,
// then trailer fill, plus f.Interlace extra trailer bytes if fieldNumber
// is odd.
func EncodeField(f *format.Format, fieldNumber int, src []byte) []byte {
	trailer := f.Trailer
	if fieldNumber&1 != 0 {
		trailer += f.Interlace
	}
	out := make([]byte, f.Leader+f.ActiveSize+trailer)
	for i := 0; i < f.Leader; i++ {
		out[i] = Leader
	}

	dst := out[f.Leader:]
	si := 0
	for chunk := 0; chunk < f.KeyLength; chunk++ {
		dst[0] = KeySequence[chunk%len(KeySequence)]
		n := f.KeyInterval - 1
		if chunk == f.KeyLength-1 {
			n = f.ActiveSize%f.KeyInterval - 1
			if n < 0 {
				n = f.KeyInterval - 1
			}
		}
		copy(dst[1:1+n], src[si:si+n])
		dst = dst[1+n:]
		si += n
	}
	for i := range dst {
		dst[i] = Trailer
	}
	return out
}

// DecodeField is EncodeField's inverse: given the active area of a
// located field (f.ActiveSize bytes, starting right after the leader), it
// strips the key bytes and returns the original sector data.
func DecodeField(f *format.Format, active []byte) []byte {
	out := make([]byte, f.ActiveSize-f.KeyLength)
	src := active
	oi := 0
	for chunk := 0; chunk < f.KeyLength; chunk++ {
		src = src[1:]
		n := f.KeyInterval - 1
		if chunk == f.KeyLength-1 {
			n = f.ActiveSize%f.KeyInterval - 1
			if n < 0 {
				n = f.KeyInterval - 1
			}
		}
		copy(out[oi:oi+n], src[:n])
		src = src[n:]
		oi += n
	}
	return out
}

// Correlate counts how many of the key_length positions (key_interval
// bytes apart, starting at data[0]) match the key sequence, sampled
// cyclically the same way EncodeField writes them.
func Correlate(data []byte, keyInterval, keyLength int) int {
	count := 0
	pos := 0
	for i := 0; i < keyLength; i++ {
		if pos >= len(data) {
			break
		}
		if data[pos] == KeySequence[i%len(KeySequence)] {
			count++
		}
		pos += keyInterval
	}
	return count
}

// Locate scans buf for the first offset whose correlation against the key
// sequence meets Threshold(f), trying every byte position up to the
// point where f.ActiveSize bytes remain. It returns the offset of the
// first byte following the candidate's leader (i.e. the start of its
// active area), that candidate's score, and whether a lock was found at
// all; when it returns false the caller should keep consuming input and
// retry once more bytes arrive, per the "does not stall" synchronization
// policy.
func Locate(buf []byte, f *format.Format) (offset, score int, found bool) {
	best := -1
	bestOffset := 0
	last := len(buf) - f.ActiveSize
	for i := 0; i <= last; i++ {
		c := Correlate(buf[i:], f.KeyInterval, f.KeyLength)
		if c > best {
			best = c
			bestOffset = i
		}
		if c >= Threshold(f) {
			return i, c, true
		}
	}
	return bestOffset, best, false
}

// Stats accumulates the health counters a frame locator produces across a
// stream: the weakest correlation that was still accepted as a lock, the
// strongest correlation seen on a rejected (non-key) candidate, and the
// smallest/largest spacing observed between consecutive accepted field
// starts.
type Stats struct {
	WorstKey     int
	BestNonKey   int
	SmallestGap  int
	LargestGap   int
	FrameErrors  int
	haveLastGap  bool
	lastOffset   int
}

// NewStats returns a Stats ready to accumulate, with WorstKey seeded at
// maxKeyWeight, the highest score a lock can have, so the first lock sets
// it.
func NewStats(maxKeyWeight int) *Stats {
	return &Stats{WorstKey: maxKeyWeight, SmallestGap: -1}
}

// Observe records one located field's correlation score and byte offset
// from the previous located field (ignored for the first field). frameSize
// is the nominal spacing between consecutive field starts; an observed
// gap more than 4/3 of it counts as a frame error.
func (s *Stats) Observe(score, offset, frameSize int) {
	if score < s.WorstKey {
		s.WorstKey = score
	}
	if s.haveLastGap {
		gap := offset
		if s.SmallestGap < 0 || gap < s.SmallestGap {
			s.SmallestGap = gap
		}
		if gap > s.LargestGap {
			s.LargestGap = gap
		}
		if gap*3 > frameSize*4 {
			s.FrameErrors++
		}
	}
	s.haveLastGap = true
	s.lastOffset = offset
	_ = s.lastOffset
}

// ObserveNonKey records a rejected candidate's correlation score.
func (s *Stats) ObserveNonKey(score int) {
	if score > s.BestNonKey {
		s.BestNonKey = score
	}
}
