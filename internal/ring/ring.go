// Package ring implements the single-producer/single-consumer byte ring
// buffer that links adjacent codec stages. Only the producer advances the
// tail and only the consumer advances the head. One mutex guards both the
// head/tail bookkeeping and the byte copies: bytes are copied into and out
// of the buffer while the lock is held.
package ring

import (
	"sync"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
)

// Ring is a fixed-capacity byte ring buffer. Its usable capacity is
// size-1 bytes: the classic head==tail-means-empty, (tail+1)%size==head
// means-full convention, so bytes-in-ring + space-in-ring always equals
// size-1.
type Ring struct {
	buf  []byte
	size int

	mu       sync.Mutex
	cond     *sync.Cond
	head     int
	tail     int
	closed   bool
	drained  bool // Close() called AND every buffered byte has been read
}

// New allocates a ring with room for size-1 bytes.
func New(size int) *Ring {
	if size < 2 {
		size = 2
	}
	r := &Ring{buf: make([]byte, size), size: size}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *Ring) lenLocked() int {
	if r.tail >= r.head {
		return r.tail - r.head
	}
	return r.size - r.head + r.tail
}

func (r *Ring) freeLocked() int {
	return r.size - 1 - r.lenLocked()
}

// Len reports how many bytes are currently available to read.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

// Free reports how many bytes of write room remain.
func (r *Ring) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freeLocked()
}

// Close marks the ring as done: no more bytes will be written. Readers
// drain whatever remains buffered and then see io.EOF-equivalent
// bkrerrs.ErrEndOfStream.
func (r *Ring) Close() {
	r.mu.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// TryWrite copies as much of p as fits without blocking. It returns
// bkrerrs.ErrWouldBlock only when zero bytes could be copied and p is
// non-empty; a short copy is not an error, matching the cooperative
// driver loop's single-producer contract.
func (r *Ring) TryWrite(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ring: write after close")
	}
	n := r.copyInLocked(p)
	if n == 0 {
		return 0, bkrerrs.ErrWouldBlock
	}
	r.cond.Broadcast()
	return n, nil
}

func (r *Ring) copyInLocked(p []byte) int {
	free := r.freeLocked()
	n := len(p)
	if n > free {
		n = free
	}
	for i := 0; i < n; i++ {
		r.buf[r.tail] = p[i]
		r.tail++
		if r.tail == r.size {
			r.tail = 0
		}
	}
	return n
}

// Write blocks (via sync.Cond, for the multi-threaded driver) until at
// least one byte of p has been copied in, or the ring is closed.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.freeLocked() == 0 {
		if r.closed {
			return 0, bkrerrs.New(bkrerrs.CodeMalformedCodec, "ring: write after close")
		}
		r.cond.Wait()
	}
	n := r.copyInLocked(p)
	r.cond.Broadcast()
	return n, nil
}

// TryRead copies as many buffered bytes into p as are available, without
// blocking. It returns bkrerrs.ErrWouldBlock when nothing is available yet
// and the ring isn't closed, or bkrerrs.ErrEndOfStream once the ring is
// closed and fully drained.
func (r *Ring) TryRead(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.copyOutLocked(p)
	if n > 0 {
		r.cond.Broadcast()
		return n, nil
	}
	if r.closed {
		return 0, bkrerrs.ErrEndOfStream
	}
	return 0, bkrerrs.ErrWouldBlock
}

func (r *Ring) copyOutLocked(p []byte) int {
	avail := r.lenLocked()
	n := len(p)
	if n > avail {
		n = avail
	}
	for i := 0; i < n; i++ {
		p[i] = r.buf[r.head]
		r.head++
		if r.head == r.size {
			r.head = 0
		}
	}
	return n
}

// Read blocks until at least one byte is available, the ring is closed and
// drained (returns bkrerrs.ErrEndOfStream), or some bytes were copied out.
func (r *Ring) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.lenLocked() == 0 {
		if r.closed {
			return 0, bkrerrs.ErrEndOfStream
		}
		r.cond.Wait()
	}
	n := r.copyOutLocked(p)
	r.cond.Broadcast()
	return n, nil
}
