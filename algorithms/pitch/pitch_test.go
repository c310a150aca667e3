package pitch

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tuner/algorithms/spectral"
)

const testSampleRate = 44100.0

// fillSine writes a sine wave with continuous phase across calls
func fillSine(buf []float64, freq, sampleRate, amplitude float64, phaseIdx *int) {
	for i := range buf {
		buf[i] = amplitude * math.Sin(2.0*math.Pi*freq*float64(*phaseIdx)/sampleRate)
		*phaseIdx++
	}
}

func newTestEstimator(t *testing.T, method Method) *Estimator {
	t.Helper()
	cfg := DefaultConfig(2048)
	cfg.Method = method
	e, err := NewEstimator(cfg)
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	return e
}

func TestYINDetectsPureSine(t *testing.T) {
	e := newTestEstimator(t, MethodYIN)
	buf := make([]float64, 2048)
	phase := 0
	fillSine(buf, 440.0, testSampleRate, 0.8, &phase)

	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection on a pure 440 Hz sine")
	}
	if math.Abs(result.Frequency-440.0) > 4.4 {
		t.Errorf("frequency = %.2f, want 440 within 1%%", result.Frequency)
	}
	if result.Confidence < 0.8 {
		t.Errorf("confidence = %.3f, want > 0.8 for a clean sine", result.Confidence)
	}
}

func TestMPMDetectsPureSine(t *testing.T) {
	e := newTestEstimator(t, MethodMPM)
	buf := make([]float64, 2048)
	phase := 0
	fillSine(buf, 440.0, testSampleRate, 0.8, &phase)

	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection on a pure 440 Hz sine")
	}
	if math.Abs(result.Frequency-440.0) > 4.4 {
		t.Errorf("frequency = %.2f, want 440 within 1%%", result.Frequency)
	}
}

func TestDetectsLowEString(t *testing.T) {
	for _, method := range []Method{MethodYIN, MethodMPM, MethodHybrid} {
		t.Run(method.String(), func(t *testing.T) {
			e := newTestEstimator(t, method)
			buf := make([]float64, 2048)
			phase := 0
			fillSine(buf, 82.41, testSampleRate, 0.8, &phase)

			result, ok := e.Detect(buf, testSampleRate)
			if !ok {
				t.Fatal("expected detection at 82.41 Hz")
			}
			if math.Abs(result.Frequency-82.41) > 2.0 {
				t.Errorf("frequency = %.2f, want 82.41", result.Frequency)
			}
		})
	}
}

func TestSilenceProducesNoDetection(t *testing.T) {
	for _, method := range []Method{MethodYIN, MethodMPM, MethodHybrid} {
		t.Run(method.String(), func(t *testing.T) {
			e := newTestEstimator(t, method)
			buf := make([]float64, 2048)

			result, ok := e.Detect(buf, testSampleRate)
			if ok {
				t.Errorf("detected %.2f Hz in silence", result.Frequency)
			}
			if result.Frequency != 0 || result.Confidence != 0 {
				t.Errorf("empty result should be zero-valued, got %+v", result)
			}
		})
	}
}

func TestConfidenceStaysInRange(t *testing.T) {
	e := newTestEstimator(t, MethodHybrid)
	buf := make([]float64, 2048)
	phase := 0

	// Quiet signal may or may not be detected, but confidence must stay bounded
	fillSine(buf, 440.0, testSampleRate, 0.01, &phase)
	result, _ := e.Detect(buf, testSampleRate)
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence %.3f out of [0, 1]", result.Confidence)
	}
}

func TestHybridDoesNotHalveCleanSine(t *testing.T) {
	// 440 Hz has 220 Hz inside the plausible fundamental band, so a naive
	// sub-harmonic check would wrongly halve it. A clean sine carries no
	// sub-harmonic evidence and must pass through unchanged.
	e := newTestEstimator(t, MethodHybrid)
	buf := make([]float64, 2048)
	phase := 0
	fillSine(buf, 440.0, testSampleRate, 0.8, &phase)

	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection")
	}
	if math.Abs(result.Frequency-440.0) > 4.4 {
		t.Errorf("frequency = %.2f, want 440 within 1%%", result.Frequency)
	}
}

func TestHarmonicRejectionCorrectsOctaveError(t *testing.T) {
	// Weak fundamental at 82.4 Hz under a dominant second harmonic. When the
	// estimator locks onto 164.8 Hz, the sub-harmonic check must pull it back
	// to the true fundamental.
	e := newTestEstimator(t, MethodHybrid)
	buf := make([]float64, 2048)
	for i := range buf {
		t0 := float64(i) / testSampleRate
		buf[i] = 0.25*math.Sin(2.0*math.Pi*82.4*t0) + 1.0*math.Sin(2.0*math.Pi*164.8*t0)
	}

	corrected := e.rejectHarmonic(buf, testSampleRate, 164.8)
	if math.Abs(corrected-82.4) > 82.4*0.05 {
		t.Errorf("corrected frequency = %.2f, want 82.4 within 5%%", corrected)
	}

	// End to end the detection must land on the fundamental too, whether the
	// estimator found it directly or through the correction
	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection")
	}
	if math.Abs(result.Frequency-82.4) > 82.4*0.05 {
		t.Errorf("detected %.2f Hz, want 82.4 within 5%%", result.Frequency)
	}
}

func TestHarmonicRejectionLeavesCleanSineAlone(t *testing.T) {
	e := newTestEstimator(t, MethodHybrid)
	buf := make([]float64, 2048)
	phase := 0
	fillSine(buf, 440.0, testSampleRate, 0.8, &phase)

	if got := e.rejectHarmonic(buf, testSampleRate, 440.0); got != 440.0 {
		t.Errorf("clean 440 Hz sine corrected to %.2f", got)
	}
}

func TestOutOfBandFrequencyRejected(t *testing.T) {
	e := newTestEstimator(t, MethodYIN)
	buf := make([]float64, 2048)
	phase := 0
	// 40 Hz is below the 80 Hz detection floor
	fillSine(buf, 40.0, testSampleRate, 0.8, &phase)

	if result, ok := e.Detect(buf, testSampleRate); ok && result.Frequency < 80.0 {
		t.Errorf("reported out-of-band frequency %.2f", result.Frequency)
	}
}

func TestOversizedBufferClamped(t *testing.T) {
	e := newTestEstimator(t, MethodYIN)
	buf := make([]float64, 4096)
	phase := 0
	fillSine(buf, 440.0, testSampleRate, 0.8, &phase)

	// Must clamp to the configured window instead of overrunning scratch
	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection on clamped buffer")
	}
	if math.Abs(result.Frequency-440.0) > 4.4 {
		t.Errorf("frequency = %.2f, want 440", result.Frequency)
	}
}

func TestAgreesWithSpectralPeak(t *testing.T) {
	// The FFT peak is an independent estimate; time-domain and frequency-domain
	// results must agree on a clean tone
	e := newTestEstimator(t, MethodYIN)
	analyzer := spectral.NewAnalyzer(2048)

	buf := make([]float64, 2048)
	phase := 0
	fillSine(buf, 220.0, testSampleRate, 0.8, &phase)

	result, ok := e.Detect(buf, testSampleRate)
	if !ok {
		t.Fatal("expected detection")
	}
	peak := analyzer.PeakFrequency(buf, testSampleRate, 80, 1200)
	if math.Abs(result.Frequency-peak) > 220.0*0.01 {
		t.Errorf("YIN %.2f Hz and spectral peak %.2f Hz disagree", result.Frequency, peak)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig(2048)
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	bad := DefaultConfig(2048)
	bad.MinFrequency = 500
	bad.MaxFrequency = 100
	if err := bad.Validate(); err == nil {
		t.Error("inverted frequency range accepted")
	}

	bad = DefaultConfig(0)
	if err := bad.Validate(); err == nil {
		t.Error("zero buffer size accepted")
	}
}
