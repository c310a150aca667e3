package pitch

import "math"

// detectHybrid runs YIN first and trusts its estimate at high confidence;
// otherwise it re-runs the buffer through MPM. The chosen raw estimate is then
// checked against its own sub-harmonics to correct octave errors caused by
// strong upper partials.
func (e *Estimator) detectHybrid(buf []float64, sampleRate float64) (Result, bool) {
	result, ok := e.detectYIN(buf, sampleRate)
	if !ok || result.Confidence < e.cfg.YinConfidenceFloor {
		if mpmResult, mpmOK := e.detectMPM(buf, sampleRate); mpmOK {
			result, ok = mpmResult, true
		}
	}
	if !ok {
		return Result{}, false
	}

	result.Frequency = e.rejectHarmonic(buf, sampleRate, result.Frequency)
	return result, true
}

// residualFloor is the normalized difference above which the detected period
// is considered an imperfect fit, opening the estimate to sub-harmonic
// correction. A clean fundamental sits well under this.
const residualFloor = 0.02

// rejectHarmonic tests the 1/2, 1/3 and 1/4 sub-harmonics of the detected
// frequency. A candidate inside the plausible fundamental band replaces the
// estimate when the detected frequency is within tolerance of an integer
// multiple of it and the candidate period explains the buffer markedly better
// than the detected one. The second condition keeps a clean fundamental from
// being demoted to its own sub-harmonic, which is also a perfect period.
func (e *Estimator) rejectHarmonic(buf []float64, sampleRate, freq float64) float64 {
	detLag := int(math.Round(sampleRate / freq))
	detResidual := e.periodResidual(buf, detLag)
	if detResidual < residualFloor {
		return freq
	}

	for divisor := 2.0; divisor <= 4.0; divisor++ {
		candidate := freq / divisor
		if candidate < e.cfg.FundamentalMin || candidate > e.cfg.FundamentalMax {
			continue
		}

		lag := int(math.Round(sampleRate / candidate))
		if lag >= len(buf)/2 {
			continue
		}

		// Lag quantization shifts the realizable candidate; the detected
		// frequency must still sit near an integer multiple of it
		realized := sampleRate / float64(lag)
		multiple := math.Round(freq / realized)
		if multiple < 2 || math.Abs(freq-multiple*realized)/freq > e.cfg.HarmonicTolerance {
			continue
		}

		if e.periodResidual(buf, lag) < 0.5*detResidual {
			return realized
		}
	}
	return freq
}

// periodResidual measures how poorly lag fits the buffer as a period: the
// squared difference at that lag normalized by signal energy, 0 for a perfect
// period, approaching 2 for uncorrelated content.
func (e *Estimator) periodResidual(buf []float64, lag int) float64 {
	if lag <= 0 || lag >= len(buf) {
		return math.Inf(1)
	}

	window := len(buf) - lag
	diff := 0.0
	energy := 0.0
	for j := 0; j < window; j++ {
		x1 := buf[j]
		x2 := buf[j+lag]
		delta := x1 - x2
		diff += delta * delta
		energy += x1*x1 + x2*x2
	}
	if energy == 0 {
		return math.Inf(1)
	}
	return 2.0 * diff / energy
}
