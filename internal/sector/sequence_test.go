package sector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequencerAcceptsMonotoneNumbers(t *testing.T) {
	s := NewSequencer()
	for i := int32(0); i < 5; i++ {
		ev := s.Observe(i, true)
		require.Equal(t, EventAccept, ev.Kind)
	}
}

func TestSequencerDropsDuplicates(t *testing.T) {
	s := NewSequencer()
	require.Equal(t, EventAccept, s.Observe(0, true).Kind)
	require.Equal(t, EventAccept, s.Observe(1, true).Kind)
	require.Equal(t, EventDuplicate, s.Observe(1, true).Kind)
	require.Equal(t, EventDuplicate, s.Observe(0, true).Kind)
}

func TestSequencerReportsGapSize(t *testing.T) {
	s := NewSequencer()
	require.Equal(t, EventAccept, s.Observe(0, true).Kind)
	ev := s.Observe(4, true)
	require.Equal(t, EventSkip, ev.Kind)
	require.Equal(t, 3, ev.Skipped)
}

func TestSequencerBORResetsState(t *testing.T) {
	s := NewSequencer()
	require.Equal(t, EventAccept, s.Observe(0, true).Kind)
	require.Equal(t, EventAccept, s.Observe(1, true).Kind)

	ev := s.Observe(-1, true)
	require.Equal(t, EventBOR, ev.Kind)

	// after BOR, the next number starts a fresh sequence regardless of value
	ev = s.Observe(0, true)
	require.Equal(t, EventAccept, ev.Kind)
}

func TestSequencerBadHeaderDoesNotAdvance(t *testing.T) {
	s := NewSequencer()
	require.Equal(t, EventAccept, s.Observe(0, true).Kind)
	ev := s.Observe(0, false)
	require.Equal(t, EventBadHeader, ev.Kind)
	require.Equal(t, 1, s.BadSectors())

	ev = s.Observe(1, true)
	require.Equal(t, EventAccept, ev.Kind)
}
