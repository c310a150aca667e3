// Package engine is the audio processing core: it owns the input and output
// devices, runs pitch detection and stabilization on captured audio, and
// renders feedback through the mixer. Detection results and input level are
// published through lock-free atomics for the UI thread.
package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
	"github.com/RyanBlaney/sonido-tuner/algorithms/stabilize"
	"github.com/RyanBlaney/sonido-tuner/audio"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/mixer"
	"github.com/RyanBlaney/sonido-tuner/ringbuf"
	"github.com/RyanBlaney/sonido-tuner/synth"
)

// Engine drives the full capture-analyze-render loop. Lifecycle methods run
// on the control thread only; onInput and onOutput run on the device threads
// and touch nothing but preallocated buffers and atomics.
//
// Input samples accumulate until a full analysis window is available, then
// the window runs through the estimator and stabilizer and the result is
// published. The accumulation buffer holds four windows; if a single callback
// delivers more than fits, the excess is dropped and an overflow flag is set
// for the UI to surface.
type Engine struct {
	cfg Config
	log logging.Logger

	estimator  *pitch.Estimator
	stabilizer stabilize.Stabilizer
	ring       *ringbuf.Ring
	params     *mixer.Params
	poly       *synth.PolyphonicGenerator
	mix        *mixer.Mixer

	input  audio.Device
	output audio.Device

	// current device ids, control-thread only; -1 means the default device
	inputID  int
	outputID int

	// callback-owned
	gained   []float64 // per-chunk gain scratch
	accum    []float64 // accumMultiplier * BufferSize
	accumLen int

	overflow   atomic.Bool
	inputLevel atomic.Uint64 // float64 bits, RMS of the last input buffer

	// published pitch, input callback writes / control thread reads
	detected   atomic.Bool
	frequency  atomic.Uint64 // float64 bits
	confidence atomic.Uint64 // float64 bits
}

// New constructs an engine with injected devices. Devices are opened by
// Start, not here; pass audio.NewInputDevice / NewOutputDevice in production
// or mocks in tests.
func New(cfg Config, input, output audio.Device) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if input == nil {
		return nil, fmt.Errorf("input device must not be nil")
	}

	estimator, err := pitch.NewEstimator(cfg.Pitch)
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch estimator: %w", err)
	}
	stabilizer, err := stabilize.New(cfg.Stabilizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create stabilizer: %w", err)
	}

	params := mixer.NewParams(cfg.Feedback)
	ring := ringbuf.New(accumMultiplier * cfg.BufferSize)
	poly := synth.NewPolyphonicGenerator(cfg.SampleRate)

	e := &Engine{
		cfg:        cfg,
		log:        logging.WithFields(logging.Fields{"component": "engine"}),
		estimator:  estimator,
		stabilizer: stabilizer,
		ring:       ring,
		params:     params,
		poly:       poly,
		mix:        mixer.New(params, ring, poly, cfg.SampleRate, cfg.FramesPerBuffer),
		input:      input,
		output:     output,
		inputID:    -1,
		outputID:   -1,
		gained:     make([]float64, cfg.FramesPerBuffer),
		accum:      make([]float64, accumMultiplier*cfg.BufferSize),
	}
	return e, nil
}

// Start opens and starts the input device, then the output device. A missing
// or failing output is not fatal: pitch detection runs without playback.
func (e *Engine) Start() error {
	inCfg := audio.StreamConfig{
		SampleRate:      e.cfg.SampleRate,
		Channels:        1,
		FramesPerBuffer: e.cfg.FramesPerBuffer,
	}
	if err := e.input.OpenDefault(inCfg, e.onInput); err != nil {
		return fmt.Errorf("failed to open input device: %w", err)
	}
	if err := e.input.Start(); err != nil {
		e.input.Close()
		return fmt.Errorf("failed to start input device: %w", err)
	}
	e.log.Info("input stream started", logging.Fields{
		"sample_rate":       e.cfg.SampleRate,
		"frames_per_buffer": e.cfg.FramesPerBuffer,
		"buffer_size":       e.cfg.BufferSize,
	})

	if e.output == nil {
		return nil
	}
	outCfg := audio.StreamConfig{
		SampleRate:      e.cfg.SampleRate,
		Channels:        e.cfg.OutputChannels,
		FramesPerBuffer: e.cfg.FramesPerBuffer,
	}
	if err := e.output.OpenDefault(outCfg, e.onOutput); err != nil {
		e.log.Warn("output device unavailable, feedback disabled", logging.Fields{
			"error": err.Error(),
		})
		return nil
	}
	if err := e.output.Start(); err != nil {
		e.output.Close()
		e.log.Warn("failed to start output device, feedback disabled", logging.Fields{
			"error": err.Error(),
		})
		return nil
	}
	e.log.Info("output stream started", logging.Fields{
		"channels": e.cfg.OutputChannels,
	})
	return nil
}

// Close stops and releases both devices. Safe to call on any lifecycle state
// and on every exit path.
func (e *Engine) Close() {
	if e.output != nil && e.output.IsOpen() {
		if err := e.output.Stop(); err != nil {
			e.log.Warn("failed to stop output device", logging.Fields{"error": err.Error()})
		}
		e.output.Close()
	}
	if e.input.IsOpen() {
		if err := e.input.Stop(); err != nil {
			e.log.Warn("failed to stop input device", logging.Fields{"error": err.Error()})
		}
		e.input.Close()
	}
	e.log.Info("audio streams closed")
}

// IsInputRunning reports whether the capture stream is delivering callbacks
func (e *Engine) IsInputRunning() bool {
	return e.input.IsRunning()
}

// IsOutputRunning reports whether the playback stream is delivering callbacks
func (e *Engine) IsOutputRunning() bool {
	return e.output != nil && e.output.IsRunning()
}

// onInput runs on the input device thread
func (e *Engine) onInput(buf []float64) {
	gain := e.params.InputGain()

	sumSquares := 0.0
	rest := buf
	for len(rest) > 0 {
		n := len(rest)
		if n > len(e.gained) {
			n = len(e.gained)
		}
		for i := 0; i < n; i++ {
			e.gained[i] = rest[i] * gain
		}
		chunk := e.gained[:n]
		sumSquares += floats.Dot(chunk, chunk)
		e.ring.Write(chunk)
		e.accumulate(chunk)
		rest = rest[n:]
	}

	if len(buf) > 0 {
		e.inputLevel.Store(math.Float64bits(math.Sqrt(sumSquares / float64(len(buf)))))
	}

	e.analyze()
}

// accumulate appends samples to the analysis accumulation buffer, dropping
// the excess and flagging overflow when full
func (e *Engine) accumulate(samples []float64) {
	space := len(e.accum) - e.accumLen
	if len(samples) > space {
		e.overflow.Store(true)
		samples = samples[:space]
	}
	copy(e.accum[e.accumLen:], samples)
	e.accumLen += len(samples)
}

// analyze consumes every complete analysis window currently accumulated
func (e *Engine) analyze() {
	window := e.cfg.BufferSize
	offset := 0
	for e.accumLen-offset >= window {
		result, ok := e.estimator.Detect(e.accum[offset:offset+window], e.cfg.SampleRate)
		if ok {
			e.stabilizer.Update(result)
			stabilized := e.stabilizer.Stabilized()
			e.frequency.Store(math.Float64bits(stabilized.Frequency))
			e.confidence.Store(math.Float64bits(stabilized.Confidence))
			e.detected.Store(true)
		} else {
			// Hold the last frequency; only the detected flag drops
			e.detected.Store(false)
		}
		offset += window
	}
	if offset > 0 {
		copy(e.accum, e.accum[offset:e.accumLen])
		e.accumLen -= offset
	}
}

// onOutput runs on the output device thread
func (e *Engine) onOutput(buf []float64) {
	e.mix.Mix(buf, e.cfg.OutputChannels)
}

// LatestPitch returns the most recent stabilized estimate. The bool mirrors
// whether the last analysis window produced a detection; the result keeps the
// last detected values so the display can hold steady through dropouts.
func (e *Engine) LatestPitch() (pitch.Result, bool) {
	return pitch.Result{
		Frequency:  math.Float64frombits(e.frequency.Load()),
		Confidence: math.Float64frombits(e.confidence.Load()),
	}, e.detected.Load()
}

// InputLevel returns the RMS level of the most recent input buffer
func (e *Engine) InputLevel() float64 {
	return math.Float64frombits(e.inputLevel.Load())
}

// CheckBufferOverflow reports whether the accumulation buffer overflowed
// since the last check, clearing the flag
func (e *Engine) CheckBufferOverflow() bool {
	return e.overflow.Swap(false)
}

// UpdateFeedback applies a full set of feedback settings
func (e *Engine) UpdateFeedback(f mixer.Feedback) {
	e.params.Apply(f)
}

// SetPolyphonicFrequencies publishes the chord voice set; zero entries mark
// disabled voices
func (e *Engine) SetPolyphonicFrequencies(freqs [synth.MaxVoices]float64) {
	e.poly.SetFrequencies(freqs)
}

// SwitchInputDevice moves capture to the given device id per the lifecycle
// contract: same-id is a no-op, a stop failure aborts the switch with the
// previous device still running, and a failed open or start triggers exactly
// one fallback to the default device.
func (e *Engine) SwitchInputDevice(id int) error {
	cfg := audio.StreamConfig{
		SampleRate:      e.cfg.SampleRate,
		Channels:        1,
		FramesPerBuffer: e.cfg.FramesPerBuffer,
	}
	return e.switchDevice(e.input, &e.inputID, id, cfg, e.onInput)
}

// SwitchOutputDevice moves playback to the given device id, with the same
// lifecycle contract as SwitchInputDevice
func (e *Engine) SwitchOutputDevice(id int) error {
	if e.output == nil {
		return fmt.Errorf("no output device configured")
	}
	cfg := audio.StreamConfig{
		SampleRate:      e.cfg.SampleRate,
		Channels:        e.cfg.OutputChannels,
		FramesPerBuffer: e.cfg.FramesPerBuffer,
	}
	return e.switchDevice(e.output, &e.outputID, id, cfg, e.onOutput)
}

func (e *Engine) switchDevice(dev audio.Device, current *int, id int, cfg audio.StreamConfig, cb audio.Callback) error {
	if dev.IsRunning() && *current == id {
		return nil
	}

	e.log.Info("switching audio device", logging.Fields{"device_id": id})

	if dev.IsRunning() {
		if err := dev.Stop(); err != nil {
			// Abort; the previous device keeps running
			e.log.Error(err, "failed to stop current stream, switch aborted")
			return fmt.Errorf("failed to stop current stream: %w", err)
		}
	}
	if dev.IsOpen() {
		dev.Close()
	}

	if err := dev.Open(id, cfg, cb); err != nil {
		e.log.Error(err, "failed to open device, falling back to default", logging.Fields{
			"device_id": id,
		})
		e.fallbackDefault(dev, current, cfg, cb)
		return fmt.Errorf("failed to open device %d: %w", id, err)
	}
	if err := dev.Start(); err != nil {
		dev.Close()
		e.log.Error(err, "failed to start device, falling back to default", logging.Fields{
			"device_id": id,
		})
		e.fallbackDefault(dev, current, cfg, cb)
		return fmt.Errorf("failed to start device %d: %w", id, err)
	}

	*current = id
	e.log.Info("switched to device", logging.Fields{"device_id": id})
	return nil
}

// fallbackDefault makes the single default-device recovery attempt. If it
// fails the direction is left inactive until the next switch request.
func (e *Engine) fallbackDefault(dev audio.Device, current *int, cfg audio.StreamConfig, cb audio.Callback) {
	if err := dev.OpenDefault(cfg, cb); err != nil {
		e.log.Error(err, "default device fallback failed, direction inactive")
		return
	}
	if err := dev.Start(); err != nil {
		dev.Close()
		e.log.Error(err, "default device fallback failed to start, direction inactive")
		return
	}
	*current = -1
	e.log.Info("fell back to default device")
}
