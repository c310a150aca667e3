// Package audio abstracts the sound device layer. The Device interface covers
// the open/start/stop/close lifecycle the engine drives; the PortAudio
// implementation is the production backend and MockDevice stands in for it
// in tests.
package audio

import "fmt"

// DefaultSampleRate is the sample rate requested when the configuration does
// not specify one
const DefaultSampleRate = 44100.0

// DefaultFramesPerBuffer is the callback buffer size requested by default
const DefaultFramesPerBuffer = 512

// StreamConfig describes the stream a device should open
type StreamConfig struct {
	SampleRate      float64 `json:"sample_rate"`
	Channels        int     `json:"channels"`
	FramesPerBuffer int     `json:"frames_per_buffer"`
}

// DefaultStreamConfig returns a mono stream at the default rate and buffer size
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate:      DefaultSampleRate,
		Channels:        1,
		FramesPerBuffer: DefaultFramesPerBuffer,
	}
}

// Validate checks stream configuration parameters
func (c StreamConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("channel count must be at least 1, got %d", c.Channels)
	}
	if c.FramesPerBuffer < 1 {
		return fmt.Errorf("frames per buffer must be at least 1, got %d", c.FramesPerBuffer)
	}
	return nil
}

// Callback processes one buffer of interleaved samples. For an input device
// the buffer holds captured samples; for an output device the callback fills
// it. It runs on the device thread and must not allocate, lock, or block.
type Callback func(buf []float64)

// Device is one directional audio endpoint with an explicit lifecycle:
// closed -> open -> running. Open and OpenDefault bind the stream and
// callback, Start begins callback delivery, Stop pauses it, Close releases
// the device. All lifecycle methods are control-thread only.
type Device interface {
	// Open binds the device with the given backend id
	Open(id int, cfg StreamConfig, cb Callback) error
	// OpenDefault binds the backend's default device for this direction
	OpenDefault(cfg StreamConfig, cb Callback) error
	Start() error
	Stop() error
	Close() error

	IsOpen() bool
	IsRunning() bool

	// SampleRate and Channels report the opened stream; zero when closed
	SampleRate() float64
	Channels() int

	// LastError returns a description of the most recent failure, empty if none
	LastError() string
}

// DeviceInfo describes an enumerable device
type DeviceInfo struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	IsDefaultInput    bool    `json:"is_default_input"`
	IsDefaultOutput   bool    `json:"is_default_output"`
}
