// Package stats collects the /proc-style health counters the original
// driver exposed, and the rolling rate counters layered on top of them for
// the CLI's "stats" subcommand.
package stats

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is the point-in-time counter set reported by Counters.Snapshot,
// mirroring the original driver's bkr_errors_t/bkr_health_t pair.
type Snapshot struct {
	SymbolsCorrected uint64 `json:"symbols_corrected"`
	BadSectors       uint64 `json:"bad_sectors"`
	Uncorrectable    uint64 `json:"uncorrectable_blocks"`
	SkippedSectors   uint64 `json:"skipped_sectors"`
	FrameErrors      uint64 `json:"frame_errors"`
	Overruns         uint64 `json:"overruns"`
	Underruns        uint64 `json:"underruns"`
	WorstKey         int    `json:"worst_key"`
	BestNonKey       int    `json:"best_nonkey"`
	SmallestField    int    `json:"smallest_field"`
	LargestField     int    `json:"largest_field"`
}

// JSON marshals s using the same compatible-with-encoding/json codec the
// CLI uses for every other structured status it prints.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Counters accumulates the raw counts a running encode or decode updates;
// Snapshot returns an immutable copy suitable for the stats CLI or a
// future /proc-equivalent endpoint.
type Counters struct {
	SymbolsCorrected uint64
	BadSectors       uint64
	Uncorrectable    uint64
	SkippedSectors   uint64
	Overruns         uint64
	Underruns        uint64
}

// Snapshot merges c with the frame layer's Stats into one reportable
// Snapshot.
func (c *Counters) Snapshot(f *FrameHealth) Snapshot {
	s := Snapshot{
		SymbolsCorrected: c.SymbolsCorrected,
		BadSectors:       c.BadSectors,
		Uncorrectable:    c.Uncorrectable,
		SkippedSectors:   c.SkippedSectors,
		Overruns:         c.Overruns,
		Underruns:        c.Underruns,
	}
	if f != nil {
		s.FrameErrors = uint64(f.FrameErrors)
		s.WorstKey = f.WorstKey
		s.BestNonKey = f.BestNonKey
		s.SmallestField = f.SmallestGap
		s.LargestField = f.LargestGap
	}
	return s
}

// FrameHealth is the subset of internal/frame.Stats that Snapshot needs;
// declared here (rather than importing internal/frame) so this package has
// no dependency on the frame layer's EncodeField/DecodeField machinery.
type FrameHealth struct {
	WorstKey     int
	BestNonKey   int
	SmallestGap  int
	LargestGap   int
	FrameErrors  int
}
