// Package synth provides the tone generators used for audio feedback:
// reference tones, drones, the in-tune beep and polyphonic chord playback.
package synth

import "math"

// SineGenerator produces amplitude * sin(2π·frequency·t) with a phase
// accumulator that stays continuous across calls, so frequency or amplitude
// changes between callbacks cause no discontinuity.
//
// A generator belongs to a single callback context; it is not safe for
// concurrent use.
type SineGenerator struct {
	sampleRate float64
	frequency  float64
	phase      float64 // normalized [0, 1)
	phaseInc   float64
}

// NewSineGenerator creates a generator for the given sample rate
func NewSineGenerator(sampleRate float64) *SineGenerator {
	g := &SineGenerator{sampleRate: sampleRate}
	g.SetFrequency(440.0)
	return g
}

// SetFrequency changes the tone frequency, preserving the current phase
func (g *SineGenerator) SetFrequency(freq float64) {
	if freq < 0 {
		freq = 0
	}
	g.frequency = freq
	g.phaseInc = freq / g.sampleRate
}

// Frequency returns the current tone frequency
func (g *SineGenerator) Frequency() float64 {
	return g.frequency
}

// Next produces one sample at the given amplitude and advances the phase
func (g *SineGenerator) Next(amplitude float64) float64 {
	sample := amplitude * math.Sin(2.0*math.Pi*g.phase)
	g.phase += g.phaseInc
	if g.phase >= 1.0 {
		g.phase -= math.Floor(g.phase)
	}
	return sample
}

// Fill overwrites dst with samples at the given amplitude
func (g *SineGenerator) Fill(dst []float64, amplitude float64) {
	for i := range dst {
		dst[i] = g.Next(amplitude)
	}
}

// Reset returns the phase to zero
func (g *SineGenerator) Reset() {
	g.phase = 0.0
}
