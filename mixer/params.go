package mixer

import (
	"math"
	"sync/atomic"
)

// atomicFloat publishes a float64 through a uint64 bit pattern so the output
// callback can read parameters without a lock
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat) Load() float64   { return math.Float64frombits(f.bits.Load()) }

// Feedback is the full set of audio feedback settings, applied in one call.
// There is no partial-update API; the control thread fills the whole struct
// and calls Params.Apply.
type Feedback struct {
	EnableBeep bool    `json:"enable_beep"` // In-tune beep feedback
	BeepVolume float64 `json:"beep_volume"` // Volume for beep (0.0-1.0)

	EnableReference    bool    `json:"enable_reference"`    // Reference pitch playback
	ReferenceVolume    float64 `json:"reference_volume"`    // Volume for reference tone
	ReferenceFrequency float64 `json:"reference_frequency"` // Frequency for reference tone (Hz)

	EnableInputMonitoring bool    `json:"enable_input_monitoring"` // Input monitoring (digital amp)
	MonitoringVolume      float64 `json:"monitoring_volume"`       // Volume for monitoring output

	EnableDrone bool `json:"enable_drone"` // Continuous reference tone for ear training

	EnablePolyphonic bool    `json:"enable_polyphonic"` // Full-chord playback
	PolyphonicVolume float64 `json:"polyphonic_volume"` // Volume for the summed chord

	InputGain float64 `json:"input_gain"` // Gain for the input signal (1.0 = no change)
}

// DefaultFeedback returns feedback settings with every source disabled
func DefaultFeedback() Feedback {
	return Feedback{
		BeepVolume:         0.5,
		ReferenceVolume:    0.5,
		ReferenceFrequency: 440.0,
		MonitoringVolume:   0.5,
		PolyphonicVolume:   0.5,
		InputGain:          1.0,
	}
}

// Params holds the live feedback parameters as independent lock-free scalars:
// written field by field from the control thread, read once per output
// callback with relaxed ordering. No consistency is guaranteed across fields,
// so a callback may briefly observe a combination that never existed as a
// whole; the mixer's source priority makes that harmless.
type Params struct {
	beepEnabled       atomic.Bool
	referenceEnabled  atomic.Bool
	monitoringEnabled atomic.Bool
	droneEnabled      atomic.Bool
	polyphonicEnabled atomic.Bool

	beepVolume         atomicFloat
	referenceVolume    atomicFloat
	referenceFrequency atomicFloat
	monitoringVolume   atomicFloat
	polyphonicVolume   atomicFloat
	inputGain          atomicFloat
}

// NewParams creates parameters initialized from the given feedback settings
func NewParams(f Feedback) *Params {
	p := &Params{}
	p.Apply(f)
	return p
}

// Apply publishes all feedback settings, field by field
func (p *Params) Apply(f Feedback) {
	p.beepEnabled.Store(f.EnableBeep)
	p.referenceEnabled.Store(f.EnableReference)
	p.monitoringEnabled.Store(f.EnableInputMonitoring)
	p.droneEnabled.Store(f.EnableDrone)
	p.polyphonicEnabled.Store(f.EnablePolyphonic)

	p.beepVolume.Store(f.BeepVolume)
	p.referenceVolume.Store(f.ReferenceVolume)
	p.referenceFrequency.Store(f.ReferenceFrequency)
	p.monitoringVolume.Store(f.MonitoringVolume)
	p.polyphonicVolume.Store(f.PolyphonicVolume)
	p.inputGain.Store(f.InputGain)
}

// InputGain returns the current input gain, read by the input callback
func (p *Params) InputGain() float64 {
	return p.inputGain.Load()
}

// ReferenceFrequency returns the current reference tone frequency
func (p *Params) ReferenceFrequency() float64 {
	return p.referenceFrequency.Load()
}
