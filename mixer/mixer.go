// Package mixer combines the feedback sources (input monitoring, reference
// tones, drone, chord playback, in-tune beep) into the output stream, driven
// by lock-free parameters the control thread updates at any time.
package mixer

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-tuner/ringbuf"
	"github.com/RyanBlaney/sonido-tuner/synth"
)

// BeepFrequency is the fixed in-tune beep pitch in Hz
const BeepFrequency = 880.0

// Mixer renders one output buffer per callback. All state it touches is either
// callback-owned (generators, scratch) or lock-free (params, ring), so Mix
// never allocates, locks, or blocks.
//
// Source priority when several tone sources are enabled at once: drone, then
// polyphonic, then reference. Exactly one of the three sounds. Monitoring and
// the beep mix additively on top.
type Mixer struct {
	params *Params
	ring   *ringbuf.Ring

	reference *synth.SineGenerator
	beep      *synth.SineGenerator
	poly      *synth.PolyphonicGenerator

	mono []float64 // per-source scratch, maxFrames samples
}

// New creates a mixer. maxFrames bounds the per-callback frame count; Mix
// handles at most that many frames per call.
func New(params *Params, ring *ringbuf.Ring, poly *synth.PolyphonicGenerator, sampleRate float64, maxFrames int) *Mixer {
	if maxFrames < 1 {
		maxFrames = 1
	}
	beep := synth.NewSineGenerator(sampleRate)
	beep.SetFrequency(BeepFrequency)
	return &Mixer{
		params:    params,
		ring:      ring,
		reference: synth.NewSineGenerator(sampleRate),
		beep:      beep,
		poly:      poly,
		mono:      make([]float64, maxFrames),
	}
}

// Mix overwrites out with the combined feedback signal. out is interleaved
// with the given channel count; mono sources are duplicated across channels.
func (m *Mixer) Mix(out []float64, channels int) {
	if channels < 1 {
		channels = 1
	}
	frames := len(out) / channels
	if frames > len(m.mono) {
		frames = len(m.mono)
	}

	for i := range out {
		out[i] = 0
	}
	if frames == 0 {
		return
	}

	// Input monitoring drains whatever the input callback has queued, up to
	// one buffer. A short read leaves the tail silent rather than blocking.
	if m.params.monitoringEnabled.Load() {
		n := m.ring.Read(m.mono[:frames])
		if n > 0 {
			addMono(out[:n*channels], channels, m.mono[:n], m.params.monitoringVolume.Load())
		}
	}

	switch {
	case m.params.droneEnabled.Load():
		m.reference.SetFrequency(m.params.referenceFrequency.Load())
		m.reference.Fill(m.mono[:frames], m.params.referenceVolume.Load())
		addMono(out[:frames*channels], channels, m.mono[:frames], 1.0)
	case m.params.polyphonicEnabled.Load():
		m.poly.Fill(m.mono[:frames], m.params.polyphonicVolume.Load())
		addMono(out[:frames*channels], channels, m.mono[:frames], 1.0)
	case m.params.referenceEnabled.Load():
		m.reference.SetFrequency(m.params.referenceFrequency.Load())
		m.reference.Fill(m.mono[:frames], m.params.referenceVolume.Load())
		addMono(out[:frames*channels], channels, m.mono[:frames], 1.0)
	}

	if m.params.beepEnabled.Load() {
		m.beep.Fill(m.mono[:frames], m.params.beepVolume.Load())
		addMono(out[:frames*channels], channels, m.mono[:frames], 1.0)
	}

	limit(out)
}

// Reset returns all generator phases to zero. Safe only while the output
// callback is not running.
func (m *Mixer) Reset() {
	m.reference.Reset()
	m.beep.Reset()
	m.poly.Reset()
}

// addMono adds gain-scaled mono samples into an interleaved buffer,
// duplicating each sample across all channels
func addMono(dst []float64, channels int, src []float64, gain float64) {
	if channels == 1 {
		floats.AddScaled(dst, gain, src)
		return
	}
	for i, s := range src {
		v := s * gain
		base := i * channels
		for c := 0; c < channels; c++ {
			dst[base+c] += v
		}
	}
}

// limit hard-clamps every sample to [-1, 1] so stacked sources cannot push
// the device past full scale
func limit(buf []float64) {
	for i, s := range buf {
		buf[i] = math.Max(-1.0, math.Min(1.0, s))
	}
}
