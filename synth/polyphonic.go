package synth

import (
	"math"
	"sync/atomic"
)

// MaxVoices is the number of simultaneous voices, one per guitar string
const MaxVoices = 6

// PolyphonicGenerator plays up to six independent sine voices. Voice
// frequencies are set from the control thread while the output callback sums
// samples, so each frequency is published through an atomic; a frequency of
// zero disables the voice.
//
// The summed output is scaled by 1/sqrt(activeVoices) so the peak stays
// bounded no matter how many strings sound at once (equal-power summation).
type PolyphonicGenerator struct {
	sampleRate  float64
	frequencies [MaxVoices]atomic.Uint64 // float64 bits, 0 = voice disabled
	phases      [MaxVoices]float64       // callback-owned, normalized [0, 1)
}

// NewPolyphonicGenerator creates a generator for the given sample rate
func NewPolyphonicGenerator(sampleRate float64) *PolyphonicGenerator {
	return &PolyphonicGenerator{sampleRate: sampleRate}
}

// SetFrequencies publishes the voice set. Safe to call from the control
// thread at any time; zero entries mark disabled voices.
func (g *PolyphonicGenerator) SetFrequencies(freqs [MaxVoices]float64) {
	for i, f := range freqs {
		if f < 0 {
			f = 0
		}
		g.frequencies[i].Store(math.Float64bits(f))
	}
}

// ActiveVoices returns the number of currently enabled voices
func (g *PolyphonicGenerator) ActiveVoices() int {
	active := 0
	for i := range g.frequencies {
		if math.Float64frombits(g.frequencies[i].Load()) > 0 {
			active++
		}
	}
	return active
}

// Fill overwrites dst with the summed chord at the given volume. The sum is
// scaled by volume/sqrt(activeVoices); with no active voices dst is zeroed.
func (g *PolyphonicGenerator) Fill(dst []float64, volume float64) {
	var freqs [MaxVoices]float64
	active := 0
	for i := range g.frequencies {
		freqs[i] = math.Float64frombits(g.frequencies[i].Load())
		if freqs[i] > 0 {
			active++
		}
	}

	if active == 0 || volume <= 0 {
		for i := range dst {
			dst[i] = 0
		}
		return
	}

	scale := volume / math.Sqrt(float64(active))
	for i := range dst {
		sum := 0.0
		for v := 0; v < MaxVoices; v++ {
			if freqs[v] <= 0 {
				continue
			}
			sum += math.Sin(2.0 * math.Pi * g.phases[v])
			g.phases[v] += freqs[v] / g.sampleRate
			if g.phases[v] >= 1.0 {
				g.phases[v] -= math.Floor(g.phases[v])
			}
		}
		dst[i] = sum * scale
	}
}

// Reset returns all voice phases to zero
func (g *PolyphonicGenerator) Reset() {
	for i := range g.phases {
		g.phases[i] = 0.0
	}
}
