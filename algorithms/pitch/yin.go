package pitch

// detectYIN implements the YIN pitch estimation algorithm.
// Reference: de Cheveigné, A., Kawahara, H. (2002)
func (e *Estimator) detectYIN(buf []float64, sampleRate float64) (Result, bool) {
	n := len(buf)
	minLag, maxLag := e.lagRange(n, sampleRate)
	if maxLag <= minLag {
		return Result{}, false
	}

	window := n - maxLag
	if window < maxLag {
		window = n / 2
	}

	// Cumulative mean normalized difference function. The running sum keeps
	// the normalization incremental so each lag costs a single pass over the
	// comparison window.
	cmndf := e.cmndf[:maxLag+1]
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau <= maxLag; tau++ {
		diff := 0.0
		for j := 0; j < window; j++ {
			delta := buf[j] - buf[j+tau]
			diff += delta * delta
		}
		runningSum += diff
		if runningSum > 0 {
			cmndf[tau] = diff * float64(tau) / runningSum
		} else {
			// Zero energy so far (silence); keep the function at its
			// "no periodicity" ceiling
			cmndf[tau] = 1.0
		}
	}

	// First lag whose normalized difference drops below threshold, walked
	// down to the bottom of its local trough
	bestTau := -1
	for tau := minLag; tau <= maxLag; tau++ {
		if cmndf[tau] < e.cfg.YinThreshold {
			for tau+1 <= maxLag && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			bestTau = tau
			break
		}
	}
	if bestTau < 0 {
		return Result{}, false
	}

	period := parabolicInterpolation(cmndf, bestTau)
	if period <= 0 {
		return Result{}, false
	}

	frequency := sampleRate / period
	confidence := 1.0 - cmndf[bestTau]

	return e.accept(frequency, confidence)
}
