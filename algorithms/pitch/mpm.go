package pitch

// detectMPM implements the McLeod Pitch Method. The NSDF produces sharper
// peaks than YIN's difference function, which holds up better under vibrato.
// Reference: McLeod, P., Wyvill, G. (2005)
func (e *Estimator) detectMPM(buf []float64, sampleRate float64) (Result, bool) {
	n := len(buf)
	minLag, maxLag := e.lagRange(n, sampleRate)
	if maxLag <= minLag {
		return Result{}, false
	}

	window := n - maxLag
	if window < maxLag {
		window = n / 2
	}

	// Normalized square difference function:
	// nsdf(tau) = 2 * acf(tau) / (m0 + m_tau)
	nsdf := e.nsdf[:maxLag+1]
	for tau := 0; tau <= maxLag; tau++ {
		acf := 0.0
		m1 := 0.0
		m2 := 0.0
		for j := 0; j < window; j++ {
			x1 := buf[j]
			x2 := buf[j+tau]
			acf += x1 * x2
			m1 += x1 * x1
			m2 += x2 * x2
		}
		if m1+m2 > 0 {
			nsdf[tau] = 2.0 * acf / (m1 + m2)
		} else {
			nsdf[tau] = 0.0
		}
	}

	// Key-maximum picking: skip to the first negative-going zero crossing,
	// then collect the local maxima of the following positive regions
	start := minLag
	for start <= maxLag && nsdf[start] > 0 {
		start++
	}
	if start > maxLag {
		// NSDF never left its initial lobe; fall back to searching the
		// configured range directly
		start = minLag
	}

	highest := 0.0
	bestTau := -1
	for tau := start; tau <= maxLag; tau++ {
		if nsdf[tau] <= 0 {
			continue
		}
		if tau > 0 && tau < maxLag && nsdf[tau] >= nsdf[tau-1] && nsdf[tau] > nsdf[tau+1] {
			if nsdf[tau] > highest {
				highest = nsdf[tau]
			}
			if bestTau < 0 {
				bestTau = tau
			}
		}
	}
	if bestTau < 0 || highest <= 0 {
		return Result{}, false
	}

	// First peak that clears the threshold relative to the highest peak;
	// rejects sub-harmonic lobes without losing the true period
	threshold := e.cfg.MPMThreshold * highest
	chosen := -1
	for tau := start; tau <= maxLag; tau++ {
		if tau > 0 && tau < maxLag && nsdf[tau] >= nsdf[tau-1] && nsdf[tau] > nsdf[tau+1] && nsdf[tau] >= threshold {
			chosen = tau
			break
		}
	}
	if chosen < 0 {
		chosen = bestTau
	}
	if nsdf[chosen] < e.cfg.MPMThreshold {
		return Result{}, false
	}

	period := parabolicInterpolation(nsdf, chosen)
	if period <= 0 {
		return Result{}, false
	}

	frequency := sampleRate / period
	confidence := nsdf[chosen]

	return e.accept(frequency, confidence)
}
