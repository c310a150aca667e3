package engine

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
	"github.com/RyanBlaney/sonido-tuner/algorithms/stabilize"
	"github.com/RyanBlaney/sonido-tuner/audio"
	"github.com/RyanBlaney/sonido-tuner/mixer"
)

// accumMultiplier sizes the input accumulation buffer and the monitoring ring
// relative to the analysis window, as headroom against callback-period jitter
const accumMultiplier = 4

// Config holds everything the engine needs at construction time. Buffers are
// sized from it once; nothing is resized while a stream runs.
type Config struct {
	SampleRate      float64 `json:"sample_rate"`
	BufferSize      int     `json:"buffer_size"`       // analysis window in samples
	FramesPerBuffer int     `json:"frames_per_buffer"` // device callback period
	OutputChannels  int     `json:"output_channels"`

	Pitch      pitch.Config     `json:"pitch"`
	Stabilizer stabilize.Config `json:"stabilizer"`
	Feedback   mixer.Feedback   `json:"feedback"`
}

// DefaultConfig returns settings suited to guitar tuning: a 2048-sample
// analysis window at 44.1 kHz, hybrid detection, hybrid stabilization.
func DefaultConfig() Config {
	return Config{
		SampleRate:      audio.DefaultSampleRate,
		BufferSize:      2048,
		FramesPerBuffer: audio.DefaultFramesPerBuffer,
		OutputChannels:  2,
		Pitch:           pitch.DefaultConfig(2048),
		Stabilizer:      stabilize.DefaultConfig(),
		Feedback:        mixer.DefaultFeedback(),
	}
}

// Validate checks engine configuration parameters
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}
	if c.BufferSize < 64 {
		return fmt.Errorf("buffer size must be at least 64, got %d", c.BufferSize)
	}
	if c.FramesPerBuffer < 1 {
		return fmt.Errorf("frames per buffer must be at least 1, got %d", c.FramesPerBuffer)
	}
	if c.OutputChannels < 1 || c.OutputChannels > 2 {
		return fmt.Errorf("output channels must be 1 or 2, got %d", c.OutputChannels)
	}
	if err := c.Pitch.Validate(); err != nil {
		return fmt.Errorf("pitch config: %w", err)
	}
	if err := c.Stabilizer.Validate(); err != nil {
		return fmt.Errorf("stabilizer config: %w", err)
	}
	return nil
}
