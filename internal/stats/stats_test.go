package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersSnapshotCopiesFields(t *testing.T) {
	c := &Counters{
		SymbolsCorrected: 1,
		BadSectors:       2,
		Uncorrectable:    3,
		SkippedSectors:   4,
		Overruns:         5,
		Underruns:        6,
	}
	snap := c.Snapshot(nil)
	require.Equal(t, uint64(1), snap.SymbolsCorrected)
	require.Equal(t, uint64(2), snap.BadSectors)
	require.Equal(t, uint64(3), snap.Uncorrectable)
	require.Equal(t, uint64(4), snap.SkippedSectors)
	require.Equal(t, uint64(5), snap.Overruns)
	require.Equal(t, uint64(6), snap.Underruns)
	require.Equal(t, 0, snap.WorstKey)
}

func TestCountersSnapshotMergesFrameHealth(t *testing.T) {
	c := &Counters{}
	fh := &FrameHealth{WorstKey: 40, BestNonKey: 5, SmallestGap: 100, LargestGap: 110, FrameErrors: 2}
	snap := c.Snapshot(fh)
	require.Equal(t, 40, snap.WorstKey)
	require.Equal(t, 5, snap.BestNonKey)
	require.Equal(t, 100, snap.SmallestField)
	require.Equal(t, 110, snap.LargestField)
	require.Equal(t, uint64(2), snap.FrameErrors)
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	snap := Snapshot{SymbolsCorrected: 9, BadSectors: 1}
	out, err := snap.JSON()
	require.Nil(t, err)

	var got Snapshot
	require.Nil(t, json.Unmarshal(out, &got))
	require.Equal(t, snap, got)
}
