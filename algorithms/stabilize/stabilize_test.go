package stabilize

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
)

func result(freq, conf float64) pitch.Result {
	return pitch.Result{Frequency: freq, Confidence: conf}
}

func TestEMASeedsOnFirstSample(t *testing.T) {
	ema := NewEMA(0.3)
	ema.Update(result(440.0, 0.9))

	got := ema.Stabilized()
	if got.Frequency != 440.0 {
		t.Errorf("first sample should seed the state, got %.2f", got.Frequency)
	}
}

func TestEMAConvergesTowardInput(t *testing.T) {
	ema := NewEMA(0.3)
	ema.Update(result(100.0, 1.0))
	for i := 0; i < 50; i++ {
		ema.Update(result(200.0, 1.0))
	}

	got := ema.Stabilized()
	if math.Abs(got.Frequency-200.0) > 1.0 {
		t.Errorf("EMA should converge to 200, got %.2f", got.Frequency)
	}
}

func TestEMAHigherAlphaTracksFaster(t *testing.T) {
	slow := NewEMA(0.1)
	fast := NewEMA(0.6)
	slow.Update(result(100.0, 1.0))
	fast.Update(result(100.0, 1.0))

	slow.Update(result(200.0, 1.0))
	fast.Update(result(200.0, 1.0))

	if fast.Stabilized().Frequency <= slow.Stabilized().Frequency {
		t.Errorf("alpha 0.6 (%.2f) should track closer to 200 than alpha 0.1 (%.2f)",
			fast.Stabilized().Frequency, slow.Stabilized().Frequency)
	}
}

func TestEMAReset(t *testing.T) {
	ema := NewEMA(0.3)
	ema.Update(result(440.0, 0.9))
	ema.Reset()

	if got := ema.Stabilized(); got.Frequency != 0 {
		t.Errorf("reset should clear state, got %.2f", got.Frequency)
	}

	// After reset the next sample seeds again
	ema.Update(result(110.0, 0.9))
	if got := ema.Stabilized(); got.Frequency != 110.0 {
		t.Errorf("post-reset sample should seed, got %.2f", got.Frequency)
	}
}

func TestMedianOddWindow(t *testing.T) {
	m := NewMedianFilter(5)
	for _, f := range []float64{100, 200, 300, 400, 500} {
		m.Update(result(f, 0.9))
	}

	if got := m.Stabilized(); got.Frequency != 300.0 {
		t.Errorf("median of 100..500 = %.2f, want 300", got.Frequency)
	}
}

func TestMedianEvenCountAveragesMiddles(t *testing.T) {
	m := NewMedianFilter(5)
	for _, f := range []float64{100, 200, 300, 400} {
		m.Update(result(f, 0.9))
	}

	if got := m.Stabilized(); got.Frequency != 250.0 {
		t.Errorf("median of 100..400 = %.2f, want 250", got.Frequency)
	}
}

func TestMedianRejectsSpike(t *testing.T) {
	m := NewMedianFilter(5)
	for _, f := range []float64{440, 441, 880, 440, 439} {
		m.Update(result(f, 0.9))
	}

	got := m.Stabilized()
	if got.Frequency > 450 {
		t.Errorf("spike leaked through the median: %.2f", got.Frequency)
	}
}

func TestMedianSlidesWindow(t *testing.T) {
	m := NewMedianFilter(3)
	for _, f := range []float64{100, 100, 100, 500, 500, 500} {
		m.Update(result(f, 0.9))
	}

	// Window now holds only the new plateau
	if got := m.Stabilized(); got.Frequency != 500.0 {
		t.Errorf("window should have slid to 500, got %.2f", got.Frequency)
	}
}

func TestHybridAbsorbsLowConfidenceSpike(t *testing.T) {
	h := NewHybrid(0.3, 5)
	for i := 0; i < 10; i++ {
		h.Update(result(440.0, 0.95))
	}
	settled := h.Stabilized().Frequency

	// A single low-confidence octave spike
	h.Update(result(880.0, 0.2))

	got := h.Stabilized().Frequency
	if math.Abs(got-settled) > 5.0 {
		t.Errorf("spike moved output from %.2f to %.2f", settled, got)
	}
}

func TestHybridConfidenceScalesStep(t *testing.T) {
	low := NewHybrid(0.5, 1)
	high := NewHybrid(0.5, 1)
	low.Update(result(100.0, 1.0))
	high.Update(result(100.0, 1.0))

	low.Update(result(200.0, 0.2))
	high.Update(result(200.0, 1.0))

	lowStep := low.Stabilized().Frequency - 100.0
	highStep := high.Stabilized().Frequency - 100.0
	if lowStep >= highStep {
		t.Errorf("low-confidence step %.2f should be smaller than high-confidence step %.2f",
			lowStep, highStep)
	}
}

func TestPassthroughReturnsRawResult(t *testing.T) {
	s, err := New(Config{Type: TypeNone, Alpha: 0.3, WindowSize: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Update(result(440.0, 0.9))
	if got := s.Stabilized(); got.Frequency != 440.0 || got.Confidence != 0.9 {
		t.Errorf("passthrough altered result: %+v", got)
	}

	s.Update(result(880.0, 0.5))
	if got := s.Stabilized(); got.Frequency != 880.0 {
		t.Errorf("passthrough should track instantly, got %.2f", got.Frequency)
	}
}

func TestFactoryCoversAllTypes(t *testing.T) {
	for _, typ := range []Type{TypeNone, TypeEMA, TypeMedian, TypeHybrid} {
		cfg := DefaultConfig()
		cfg.Type = typ
		s, err := New(cfg)
		if err != nil {
			t.Errorf("New(%s): %v", typ, err)
			continue
		}
		s.Update(result(440.0, 0.9))
		if s.Stabilized().Frequency <= 0 {
			t.Errorf("%s produced no output after update", typ)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.Alpha = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("alpha > 1 accepted")
	}

	bad = DefaultConfig()
	bad.WindowSize = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero window size accepted")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	for _, typ := range []Type{TypeNone, TypeEMA, TypeMedian, TypeHybrid} {
		cfg := DefaultConfig()
		cfg.Type = typ
		s, _ := New(cfg)

		for i := 0; i < 8; i++ {
			s.Update(result(440.0, 0.9))
		}
		s.Reset()

		if got := s.Stabilized(); got.Frequency != 0 || got.Confidence != 0 {
			t.Errorf("%s: reset left state %+v", typ, got)
		}

		// The first post-reset update must come through exactly
		s.Update(result(220.0, 0.7))
		if got := s.Stabilized(); got.Frequency != 220.0 {
			t.Errorf("%s: first post-reset update = %.2f, want exactly 220", typ, got.Frequency)
		}
	}
}
