package pitch

import (
	"fmt"
	"math"
)

// Method selects the pitch estimation algorithm. The method is fixed when the
// estimator is constructed; it is not re-selected per call, keeping the
// real-time detection path free of dynamic dispatch.
type Method int

const (
	// MethodYIN uses the cumulative mean normalized difference function
	MethodYIN Method = iota
	// MethodMPM uses the normalized square difference function (NSDF)
	MethodMPM
	// MethodHybrid runs YIN first and falls back to MPM on low confidence,
	// then applies sub-harmonic octave-error correction
	MethodHybrid
)

func (m Method) String() string {
	switch m {
	case MethodYIN:
		return "YIN"
	case MethodMPM:
		return "MPM"
	case MethodHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Result is a single pitch estimate
type Result struct {
	Frequency  float64 `json:"frequency"`  // Frequency in Hz, 0 when nothing detected
	Confidence float64 `json:"confidence"` // Confidence score (0-1)
}

// Config contains parameters for pitch estimation
type Config struct {
	Method     Method `json:"method"`
	BufferSize int    `json:"buffer_size"` // Analysis buffer length in samples

	// Frequency range constraints
	MinFrequency float64 `json:"min_frequency"` // Minimum detectable frequency (Hz)
	MaxFrequency float64 `json:"max_frequency"` // Maximum detectable frequency (Hz)

	// Algorithm-specific parameters
	YinThreshold float64 `json:"yin_threshold"` // CMNDF acceptance threshold (~0.10)
	MPMThreshold float64 `json:"mpm_threshold"` // NSDF peak threshold relative to highest peak (~0.93)

	// Hybrid parameters
	YinConfidenceFloor float64 `json:"yin_confidence_floor"` // Below this the hybrid falls back to MPM
	FundamentalMin     float64 `json:"fundamental_min"`      // Plausible fundamental band low edge (Hz)
	FundamentalMax     float64 `json:"fundamental_max"`      // Plausible fundamental band high edge (Hz)
	HarmonicTolerance  float64 `json:"harmonic_tolerance"`   // Integer-multiple tolerance for octave correction

	// Quality threshold
	MinConfidence float64 `json:"min_confidence"` // Estimates below this report "no pitch"
}

// DefaultConfig returns estimation parameters tuned for guitar-range
// fundamentals at the given analysis buffer length.
func DefaultConfig(bufferSize int) Config {
	return Config{
		Method:             MethodHybrid,
		BufferSize:         bufferSize,
		MinFrequency:       80.0,   // E2
		MaxFrequency:       1200.0, // D6
		YinThreshold:       0.10,
		MPMThreshold:       0.93,
		YinConfidenceFloor: 0.8,
		FundamentalMin:     80.0,
		FundamentalMax:     400.0,
		HarmonicTolerance:  0.05,
		MinConfidence:      0.5,
	}
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency {
		return fmt.Errorf("invalid frequency range [%.1f, %.1f]", c.MinFrequency, c.MaxFrequency)
	}
	if c.YinThreshold <= 0 || c.YinThreshold >= 1 {
		return fmt.Errorf("yin threshold must be in (0, 1), got %.3f", c.YinThreshold)
	}
	if c.MPMThreshold <= 0 || c.MPMThreshold > 1 {
		return fmt.Errorf("mpm threshold must be in (0, 1], got %.3f", c.MPMThreshold)
	}
	if c.Method < MethodYIN || c.Method > MethodHybrid {
		return fmt.Errorf("unsupported estimation method: %d", c.Method)
	}
	return nil
}

// Estimator computes fundamental-frequency estimates from analysis buffers.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
// - McLeod, P., Wyvill, G. (2005). "A smarter way to find pitch"
//
// All scratch buffers are sized at construction; Detect performs no
// allocations and may run inside an audio callback.
type Estimator struct {
	cfg Config

	// Internal scratch, sized for BufferSize
	cmndf []float64
	nsdf  []float64
}

// NewEstimator creates an estimator with pre-allocated analysis buffers
func NewEstimator(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	half := cfg.BufferSize / 2
	return &Estimator{
		cfg:   cfg,
		cmndf: make([]float64, half),
		nsdf:  make([]float64, half),
	}, nil
}

// Config returns the estimator configuration
func (e *Estimator) Config() Config {
	return e.cfg
}

// Detect estimates the fundamental frequency of buf. The second return value
// is false when no periodicity was found above threshold; that is a normal
// outcome, not an error.
func (e *Estimator) Detect(buf []float64, sampleRate float64) (Result, bool) {
	if len(buf) == 0 || sampleRate <= 0 {
		return Result{}, false
	}
	// Clamp oversized caller buffers to the pre-allocated analysis length
	if len(buf) > e.cfg.BufferSize {
		buf = buf[:e.cfg.BufferSize]
	}

	switch e.cfg.Method {
	case MethodYIN:
		return e.detectYIN(buf, sampleRate)
	case MethodMPM:
		return e.detectMPM(buf, sampleRate)
	default:
		return e.detectHybrid(buf, sampleRate)
	}
}

// lagRange converts the configured frequency band into a lag search range.
// maxLag is capped at half the buffer so the difference window stays valid.
func (e *Estimator) lagRange(n int, sampleRate float64) (minLag, maxLag int) {
	minLag = int(sampleRate / e.cfg.MaxFrequency)
	maxLag = int(math.Ceil(sampleRate / e.cfg.MinFrequency))
	if minLag < 2 {
		minLag = 2
	}
	if maxLag > n/2-1 {
		maxLag = n/2 - 1
	}
	return minLag, maxLag
}

// parabolicInterpolation refines a peak or trough location to sub-sample
// accuracy using the two neighboring values
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(idx)
	}

	shift := -b / (2 * a)
	if shift < -0.5 {
		shift = -0.5
	} else if shift > 0.5 {
		shift = 0.5
	}
	return float64(idx) + shift
}

// accept applies the frequency band and confidence gate shared by all methods
func (e *Estimator) accept(freq, confidence float64) (Result, bool) {
	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		return Result{}, false
	}
	if freq < e.cfg.MinFrequency || freq > e.cfg.MaxFrequency {
		return Result{}, false
	}
	if confidence < e.cfg.MinConfidence {
		return Result{}, false
	}
	if confidence > 1 {
		confidence = 1
	}
	return Result{Frequency: freq, Confidence: confidence}, true
}
