// Package stabilize smooths successive raw pitch estimates against jitter,
// octave flips and single-frame spikes before they reach the display.
package stabilize

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
)

// Type selects the stabilization algorithm, fixed at construction
type Type int

const (
	// TypeNone passes raw estimates through unchanged
	TypeNone Type = iota
	// TypeEMA applies exponential moving average smoothing
	TypeEMA
	// TypeMedian applies a sliding-window median filter
	TypeMedian
	// TypeHybrid combines a median pre-filter with a confidence-weighted EMA
	TypeHybrid
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeEMA:
		return "EMA"
	case TypeMedian:
		return "Median"
	case TypeHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Stabilizer smooths a stream of raw pitch estimates. Update is side-effecting;
// Stabilized returns the current smoothed value. After Reset the next Update
// behaves as the very first sample.
//
// Implementations pre-allocate all window state at construction; Update and
// Stabilized never allocate and may run inside an audio callback.
type Stabilizer interface {
	Update(raw pitch.Result)
	Stabilized() pitch.Result
	Reset()
}

// Config contains parameters for pitch stabilization
type Config struct {
	Type       Type    `json:"type"`
	Alpha      float64 `json:"alpha"`       // EMA smoothing factor (0, 1]; larger tracks faster
	WindowSize int     `json:"window_size"` // Median window length
}

// DefaultConfig returns the recommended stabilization parameters
func DefaultConfig() Config {
	return Config{
		Type:       TypeHybrid,
		Alpha:      0.3,
		WindowSize: 5,
	}
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.Type < TypeNone || c.Type > TypeHybrid {
		return fmt.Errorf("unsupported stabilizer type: %d", c.Type)
	}
	if c.Type == TypeEMA || c.Type == TypeHybrid {
		if c.Alpha <= 0 || c.Alpha > 1 {
			return fmt.Errorf("alpha must be in (0, 1], got %.3f", c.Alpha)
		}
	}
	if c.Type == TypeMedian || c.Type == TypeHybrid {
		if c.WindowSize < 1 {
			return fmt.Errorf("window size must be at least 1, got %d", c.WindowSize)
		}
	}
	return nil
}

// New creates a stabilizer of the configured type
func New(cfg Config) (Stabilizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeNone:
		return &passthrough{}, nil
	case TypeEMA:
		return NewEMA(cfg.Alpha), nil
	case TypeMedian:
		return NewMedianFilter(cfg.WindowSize), nil
	default:
		return NewHybrid(cfg.Alpha, cfg.WindowSize), nil
	}
}

// passthrough reports the raw estimate unchanged
type passthrough struct {
	state pitch.Result
}

func (p *passthrough) Update(raw pitch.Result)  { p.state = raw }
func (p *passthrough) Stabilized() pitch.Result { return p.state }
func (p *passthrough) Reset()                   { p.state = pitch.Result{} }
