package stabilize

import (
	"slices"

	"github.com/RyanBlaney/sonido-tuner/algorithms/pitch"
)

// MedianFilter keeps the last N raw estimates in a fixed window and reports
// their median. A lone outlier cannot move the median of a window of three or
// more, so single-frame spikes are rejected regardless of magnitude.
type MedianFilter struct {
	window []pitch.Result // circular, oldest overwritten
	next   int
	count  int

	// Sorting scratch, pre-sized so Stabilized never allocates
	freqs []float64
	confs []float64
}

// NewMedianFilter creates a median filter with the given window length
func NewMedianFilter(windowSize int) *MedianFilter {
	return &MedianFilter{
		window: make([]pitch.Result, windowSize),
		freqs:  make([]float64, 0, windowSize),
		confs:  make([]float64, 0, windowSize),
	}
}

func (m *MedianFilter) Update(raw pitch.Result) {
	m.window[m.next] = raw
	m.next = (m.next + 1) % len(m.window)
	if m.count < len(m.window) {
		m.count++
	}
}

func (m *MedianFilter) Stabilized() pitch.Result {
	if m.count == 0 {
		return pitch.Result{}
	}

	m.freqs = m.freqs[:0]
	m.confs = m.confs[:0]
	for i := 0; i < m.count; i++ {
		m.freqs = append(m.freqs, m.window[i].Frequency)
		m.confs = append(m.confs, m.window[i].Confidence)
	}
	slices.Sort(m.freqs)
	slices.Sort(m.confs)

	return pitch.Result{
		Frequency:  median(m.freqs),
		Confidence: median(m.confs),
	}
}

func (m *MedianFilter) Reset() {
	m.next = 0
	m.count = 0
}

// median of a sorted slice: the middle value for odd lengths, the average of
// the two middle values for even lengths
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
