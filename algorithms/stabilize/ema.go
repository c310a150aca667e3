package stabilize

import "github.com/RyanBlaney/sonido-tuner/algorithms/pitch"

// EMA smooths estimates with a single-parameter exponential moving average.
// The first update seeds the state directly so the filter has no warm-up bias.
type EMA struct {
	alpha       float64
	state       pitch.Result
	initialized bool
}

// NewEMA creates an EMA stabilizer with the given smoothing factor in (0, 1]
func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

func (e *EMA) Update(raw pitch.Result) {
	if !e.initialized {
		e.state = raw
		e.initialized = true
		return
	}
	e.state.Frequency += (raw.Frequency - e.state.Frequency) * e.alpha
	e.state.Confidence += (raw.Confidence - e.state.Confidence) * e.alpha
}

func (e *EMA) Stabilized() pitch.Result {
	return e.state
}

func (e *EMA) Reset() {
	e.state = pitch.Result{}
	e.initialized = false
}

// updateWeighted advances the filter with a per-sample effective alpha,
// used by the hybrid stabilizer for confidence weighting
func (e *EMA) updateWeighted(raw pitch.Result, alpha float64) {
	if !e.initialized {
		e.state = raw
		e.initialized = true
		return
	}
	e.state.Frequency += (raw.Frequency - e.state.Frequency) * alpha
	e.state.Confidence += (raw.Confidence - e.state.Confidence) * alpha
}
