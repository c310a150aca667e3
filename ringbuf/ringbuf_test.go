package ringbuf

import "testing"

func TestWriteThenRead(t *testing.T) {
	r := New(8)
	r.Write([]float64{1, 2, 3})

	if got := r.Available(); got != 3 {
		t.Fatalf("Available = %d, want 3", got)
	}

	dst := make([]float64, 3)
	n := r.Read(dst)
	if n != 3 {
		t.Fatalf("Read = %d, want 3", n)
	}
	for i, want := range []float64{1, 2, 3} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
	if r.Available() != 0 {
		t.Errorf("Available after full read = %d, want 0", r.Available())
	}
}

func TestReadNeverExceedsWritten(t *testing.T) {
	r := New(8)
	r.Write([]float64{1, 2})

	dst := make([]float64, 8)
	if n := r.Read(dst); n != 2 {
		t.Errorf("Read = %d, want 2", n)
	}
}

func TestReadEmptyReturnsZero(t *testing.T) {
	r := New(8)
	dst := make([]float64, 4)
	if n := r.Read(dst); n != 0 {
		t.Errorf("Read from empty ring = %d, want 0", n)
	}
}

func TestWrapAround(t *testing.T) {
	r := New(4)
	dst := make([]float64, 4)

	// Fill, drain, fill again so indices wrap past capacity
	r.Write([]float64{1, 2, 3})
	r.Read(dst[:3])
	r.Write([]float64{4, 5, 6})

	n := r.Read(dst)
	if n != 3 {
		t.Fatalf("Read = %d, want 3", n)
	}
	for i, want := range []float64{4, 5, 6} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestOverwriteWhenLapped(t *testing.T) {
	r := New(4)
	r.Write([]float64{1, 2, 3, 4})
	// Producer laps the idle consumer; oldest samples are lost
	r.Write([]float64{5, 6})

	if got := r.Available(); got != 4 {
		t.Fatalf("Available = %d, want capacity 4", got)
	}

	dst := make([]float64, 4)
	n := r.Read(dst)
	if n != 4 {
		t.Fatalf("Read = %d, want 4", n)
	}
	// Survivors are the newest four in order
	for i, want := range []float64{3, 4, 5, 6} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestWriteAlwaysSucceeds(t *testing.T) {
	r := New(4)
	// Far more than capacity in one call must not panic or block
	big := make([]float64, 100)
	for i := range big {
		big[i] = float64(i)
	}
	r.Write(big)

	dst := make([]float64, 4)
	n := r.Read(dst)
	if n != 4 {
		t.Fatalf("Read = %d, want 4", n)
	}
	for i, want := range []float64{96, 97, 98, 99} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestReset(t *testing.T) {
	r := New(8)
	r.Write([]float64{1, 2, 3})
	r.Reset()

	if r.Available() != 0 {
		t.Errorf("Available after reset = %d, want 0", r.Available())
	}

	// Ring stays usable after reset
	r.Write([]float64{7})
	dst := make([]float64, 1)
	if n := r.Read(dst); n != 1 || dst[0] != 7 {
		t.Errorf("post-reset read = %d samples, dst[0] = %v", n, dst[0])
	}
}

func TestMinimumCapacity(t *testing.T) {
	r := New(0)
	if r.Capacity() != 1 {
		t.Errorf("Capacity = %d, want clamp to 1", r.Capacity())
	}
}
