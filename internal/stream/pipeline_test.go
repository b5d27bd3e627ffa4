package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/ring"
)

// copyStage pulls fixed-size chunks from one ring and pushes them,
// doubled, into another, exercising the WouldBlock/EndOfStream contract
// Manager.Run depends on.
type copyStage struct {
	name string
	in   *ring.Ring
	out  *ring.Ring
	buf  []byte
}

func (s *copyStage) Name() string { return s.name }

func (s *copyStage) Step() error {
	n, err := s.in.TryRead(s.buf)
	if err != nil {
		if bkrerrs.Is(err, bkrerrs.CodeEndOfStream) {
			s.out.Close()
		}
		return err
	}
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		out[2*i] = s.buf[i]
		out[2*i+1] = s.buf[i]
	}
	if _, err := s.out.TryWrite(out); err != nil {
		return err
	}
	return nil
}

func TestManagerDrivesStagesToCompletion(t *testing.T) {
	a := ring.New(16)
	b := ring.New(64)

	n, err := a.TryWrite([]byte{1, 2, 3, 4})
	require.Nil(t, err)
	require.Equal(t, 4, n)
	a.Close()

	st := &copyStage{name: "double", in: a, out: b, buf: make([]byte, 1)}
	m := NewManager(st)
	require.Nil(t, m.Run())

	got := make([]byte, 8)
	n, err = b.TryRead(got)
	require.Nil(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{1, 1, 2, 2, 3, 3, 4, 4}, got)
}

type stubStage struct {
	name  string
	steps []error
	i     int
}

func (s *stubStage) Name() string { return s.name }
func (s *stubStage) Step() error {
	if s.i >= len(s.steps) {
		return bkrerrs.ErrEndOfStream
	}
	err := s.steps[s.i]
	s.i++
	return err
}

func TestManagerReportsWedgedPipeline(t *testing.T) {
	wedged := &stubStage{name: "wedged", steps: []error{bkrerrs.ErrWouldBlock, bkrerrs.ErrWouldBlock}}
	m := NewManager(wedged)
	err := m.Run()
	require.NotNil(t, err)
	require.True(t, bkrerrs.Is(err, bkrerrs.CodeMalformedCodec))
}

func TestManagerPropagatesFatalError(t *testing.T) {
	boom := bkrerrs.New(bkrerrs.CodeOutOfMemory, "boom")
	fails := &stubStage{name: "fails", steps: []error{boom}}
	m := NewManager(fails)
	err := m.Run()
	require.NotNil(t, err)
	require.True(t, bkrerrs.Is(err, bkrerrs.CodeOutOfMemory))
}
