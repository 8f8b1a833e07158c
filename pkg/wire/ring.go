package wire

import "sync"

// Ring is a fixed-capacity byte FIFO with overwrite-oldest overflow
// semantics: Push never blocks and never fails, it discards the oldest
// unread byte to make room when the ring is full. Under sustained
// overload this trades completeness for freshness, which is what the
// sampling protocol wants.
//
// Each operation is a single short critical section, so one producer and
// one consumer may run concurrently (the hosted analog of the firmware's
// interrupt handler vs. main loop, where the same effect is had by
// masking the interrupt flag around the cursor updates).
type Ring struct {
	lock sync.Mutex
	buf  []byte
	in   int
	out  int
	used int
}

// NewRing creates a Ring holding at most capacity bytes.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("wire: ring capacity must be positive")
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Push inserts b, evicting the oldest unread byte if the ring is full.
func (r *Ring) Push(b byte) {
	r.lock.Lock()
	r.buf[r.in] = b
	if r.in++; r.in >= len(r.buf) {
		r.in = 0
	}
	if r.used >= len(r.buf) {
		if r.out++; r.out >= len(r.buf) {
			r.out = 0
		}
	} else {
		r.used++
	}
	r.lock.Unlock()
}

// Pop removes and returns the oldest byte; ok is false when the ring is
// empty. Pop never blocks.
func (r *Ring) Pop() (b byte, ok bool) {
	r.lock.Lock()
	if r.used > 0 {
		b, ok = r.buf[r.out], true
		if r.out++; r.out >= len(r.buf) {
			r.out = 0
		}
		r.used--
	}
	r.lock.Unlock()
	return
}

// Len returns the number of unread bytes.
func (r *Ring) Len() int {
	r.lock.Lock()
	n := r.used
	r.lock.Unlock()
	return n
}

// Cap returns the fixed capacity set at construction.
func (r *Ring) Cap() int {
	return len(r.buf)
}
