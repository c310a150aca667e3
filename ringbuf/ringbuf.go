// Package ringbuf provides a lock-free single-producer/single-consumer sample
// queue. It bridges the input audio callback (producer) to the output audio
// callback (consumer), which run on independent device clocks.
package ringbuf

import "sync/atomic"

// Ring is a fixed-capacity SPSC circular buffer of samples. The write and
// read indices advance monotonically and are reduced modulo capacity on
// access, so available = write - read always holds without wraparound
// ambiguity. Writes never block: if the consumer falls more than one capacity
// behind, the oldest unread samples are silently overwritten. That is the
// accepted lossy-buffer policy, not an error.
//
// Exactly one goroutine may write and one may read. Neither path allocates
// or locks.
type Ring struct {
	data     []float64
	capacity uint64

	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a ring buffer with the given fixed capacity in samples
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		data:     make([]float64, capacity),
		capacity: uint64(capacity),
	}
}

// Capacity returns the fixed sample capacity
func (r *Ring) Capacity() int {
	return int(r.capacity)
}

// Available returns the number of unread samples, clamped to capacity
func (r *Ring) Available() int {
	write := r.writePos.Load()
	read := r.readPos.Load()
	avail := write - read
	if avail > r.capacity {
		avail = r.capacity
	}
	return int(avail)
}

// Write copies all samples into the buffer, overwriting the oldest unread
// data when the consumer has fallen behind. It always succeeds.
func (r *Ring) Write(samples []float64) {
	write := r.writePos.Load()
	for _, s := range samples {
		r.data[write%r.capacity] = s
		write++
	}
	// Publish the data before the index so the consumer never observes an
	// index ahead of the samples it covers
	r.writePos.Store(write)
}

// Read copies up to len(dst) samples into dst and returns the number copied,
// never more than what has actually been written. If the producer lapped the
// consumer, the read position first skips forward to the oldest surviving
// sample.
func (r *Ring) Read(dst []float64) int {
	write := r.writePos.Load()
	read := r.readPos.Load()

	avail := write - read
	if avail > r.capacity {
		// Lapped; drop everything the producer already overwrote
		read = write - r.capacity
		avail = r.capacity
	}

	n := uint64(len(dst))
	if n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		dst[i] = r.data[(read+i)%r.capacity]
	}

	r.readPos.Store(read + n)
	return int(n)
}

// Reset discards all buffered samples. Safe only while neither callback is
// running, e.g. between device switches.
func (r *Ring) Reset() {
	r.readPos.Store(r.writePos.Load())
}
