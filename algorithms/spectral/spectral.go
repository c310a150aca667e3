// Package spectral provides FFT-based frequency analysis. It allocates per
// call and is meant for the control thread and tests, as an independent
// cross-check on the time-domain pitch estimators; nothing here may be called
// from an audio callback.
package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Analyzer computes magnitude spectra with a Hann window
type Analyzer struct {
	size   int
	window []float64
}

// NewAnalyzer creates an analyzer for the given frame size
func NewAnalyzer(size int) *Analyzer {
	if size < 2 {
		size = 2
	}
	a := &Analyzer{size: size}
	a.window = make([]float64, size)
	for i := range a.window {
		a.window[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return a
}

// Size returns the analysis frame size
func (a *Analyzer) Size() int {
	return a.size
}

// Magnitude computes the windowed magnitude spectrum. Input shorter than the
// frame size is zero-padded; longer input is truncated. The result holds
// size/2+1 bins, DC through Nyquist.
func (a *Analyzer) Magnitude(signal []float64) []float64 {
	windowed := make([]float64, a.size)
	n := len(signal)
	if n > a.size {
		n = a.size
	}
	for i := 0; i < n; i++ {
		windowed[i] = signal[i] * a.window[i]
	}

	spectrum := fft.FFTReal(windowed)
	bins := a.size/2 + 1
	magnitude := make([]float64, bins)
	for i := 0; i < bins; i++ {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}

// PeakFrequency estimates the dominant frequency of the signal within
// [minFreq, maxFreq] by picking the strongest spectral bin and refining it
// with parabolic interpolation. Returns 0 when no bin in the band carries
// energy.
func (a *Analyzer) PeakFrequency(signal []float64, sampleRate, minFreq, maxFreq float64) float64 {
	magnitude := a.Magnitude(signal)
	binWidth := sampleRate / float64(a.size)

	minBin := int(math.Ceil(minFreq / binWidth))
	maxBin := int(math.Floor(maxFreq / binWidth))
	if minBin < 1 {
		minBin = 1
	}
	if maxBin > len(magnitude)-1 {
		maxBin = len(magnitude) - 1
	}
	if minBin > maxBin {
		return 0
	}

	peak := -1
	peakMag := 0.0
	for i := minBin; i <= maxBin; i++ {
		if magnitude[i] > peakMag {
			peakMag = magnitude[i]
			peak = i
		}
	}
	if peak < 0 || peakMag == 0 {
		return 0
	}

	// Parabolic refinement over the peak bin and its neighbors
	shift := 0.0
	if peak > 0 && peak < len(magnitude)-1 {
		left := magnitude[peak-1]
		right := magnitude[peak+1]
		denom := left - 2*peakMag + right
		if denom != 0 {
			shift = 0.5 * (left - right) / denom
			if shift > 0.5 {
				shift = 0.5
			} else if shift < -0.5 {
				shift = -0.5
			}
		}
	}

	return (float64(peak) + shift) * binWidth
}
