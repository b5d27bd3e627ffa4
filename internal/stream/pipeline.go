// Package stream wires the sector, outer ECC, RLL and frame layers
// together into the two top-level operations the CLI drives: Encode and
// Decode. Both call each layer directly, in sequence, on the calling
// goroutine. The package also provides Stage and Manager, a cooperative
// driver loop over named stages linked by byte rings; Encode and Decode
// do not use it.
package stream

import (
	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
)

// Stage is one pull/push transform in the pipeline: it tries to make one
// unit of progress and reports bkrerrs.ErrWouldBlock if its input ring
// lacks a full chunk or its output ring lacks room, bkrerrs.ErrEndOfStream
// once it has drained its input and flushed everything downstream, or any
// other error as fatal.
type Stage interface {
	Name() string
	Step() error
}

// Manager owns a fixed, ordered list of named stages and drives them
// cooperatively: each pass calls every stage once, front to back (so a
// byte produced by stage i is visible to stage i+1 within the same pass),
// until every stage has reported EndOfStream.
type Manager struct {
	stages []Stage
	done   []bool
}

// NewManager builds a Manager over stages, in pipeline order (source-most
// first).
func NewManager(stages ...Stage) *Manager {
	return &Manager{stages: stages, done: make([]bool, len(stages))}
}

// Run drives every stage to completion. A pass that makes no progress at
// all (every live stage returns WouldBlock) and leaves at least one stage
// undone is reported as a malformed-pipeline error: cooperative stages
// only ever block on ring space, which always opens up as later stages
// drain, so a wedged pipeline indicates stages were wired in the wrong
// order.
func (m *Manager) Run() error {
	for {
		progressed := false
		remaining := 0
		for i, st := range m.stages {
			if m.done[i] {
				continue
			}
			remaining++
			err := st.Step()
			switch {
			case err == nil:
				progressed = true
			case bkrerrs.Is(err, bkrerrs.CodeEndOfStream):
				m.done[i] = true
				progressed = true
			case bkrerrs.Is(err, bkrerrs.CodeWouldBlock):
				// try the next stage; maybe it can still make progress.
			default:
				return bkrerrs.Wrapf(err, "stream: stage %q", st.Name())
			}
		}
		if remaining == 0 {
			return nil
		}
		if !progressed {
			return bkrerrs.New(bkrerrs.CodeMalformedCodec, "stream: pipeline made no progress with stages still pending")
		}
	}
}
