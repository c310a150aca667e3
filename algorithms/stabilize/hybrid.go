package stabilize

import "github.com/RyanBlaney/sonido-tuner/algorithms/pitch"

// Hybrid spike-filters raw estimates through a median window before feeding
// them into an EMA whose step size scales with the incoming confidence.
// High-confidence estimates converge quickly; an isolated low-confidence spike
// is absorbed by the median stage before it ever reaches the EMA.
type Hybrid struct {
	baseAlpha float64
	median    *MedianFilter
	ema       *EMA
}

// NewHybrid creates a hybrid stabilizer from a base smoothing factor and a
// median window length
func NewHybrid(baseAlpha float64, windowSize int) *Hybrid {
	return &Hybrid{
		baseAlpha: baseAlpha,
		median:    NewMedianFilter(windowSize),
		ema:       NewEMA(baseAlpha),
	}
}

func (h *Hybrid) Update(raw pitch.Result) {
	h.median.Update(raw)
	filtered := h.median.Stabilized()

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	h.ema.updateWeighted(filtered, h.baseAlpha*confidence)
}

func (h *Hybrid) Stabilized() pitch.Result {
	return h.ema.Stabilized()
}

func (h *Hybrid) Reset() {
	h.median.Reset()
	h.ema.Reset()
}
