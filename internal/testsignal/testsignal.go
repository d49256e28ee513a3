// Package testsignal generates deterministic synthetic signals for tests.
package testsignal

import "math"

// Noise is a linear congruential generator producing values in [-1, 1).
// It keeps test signals reproducible without seeding math/rand.
type Noise struct {
	state uint32
}

// NewNoise returns a generator started from seed.
func NewNoise(seed uint32) *Noise {
	return &Noise{state: seed}
}

// Next returns the next pseudo-random value.
func (n *Noise) Next() float64 {
	// LCG parameters from Numerical Recipes
	n.state = n.state*1664525 + 1013904223
	return float64(n.state)/float64(math.MaxUint32)*2 - 1
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}

// Sine returns n samples of a sine at freq Hz and the given amplitude.
func Sine(n, sampleRate int, freq, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return x
}

// AddBurst writes length samples of white noise at amplitude into x
// starting at sample start.
func AddBurst(x []float64, start, length int, amplitude float64, seed uint32) {
	noise := NewNoise(seed)
	for i := start; i < start+length && i < len(x); i++ {
		x[i] += amplitude * noise.Next()
	}
}

// Impulse returns n zero samples with a single 1 at index at.
func Impulse(n, at int) []float64 {
	x := make([]float64, n)
	x[at] = 1
	return x
}

// Syllable returns a signal of the given duration holding one consonant-vowel
// syllable: a short noise burst (the plosive release) at onset seconds,
// followed by a Hann-shaped voiced vowel built from low harmonics of 140 Hz.
func Syllable(sampleRate int, duration, onset float64) []float64 {
	x := make([]float64, int(duration*float64(sampleRate)))
	start := int(onset * float64(sampleRate))

	burst := int(0.012 * float64(sampleRate))
	AddBurst(x, start, burst, 0.6, 7)

	vowelStart := start + burst
	vowelLen := int(0.3 * float64(sampleRate))
	for i := 0; i < vowelLen && vowelStart+i < len(x); i++ {
		env := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(vowelLen-1)))
		t := float64(i) / float64(sampleRate)
		var v float64
		for h := 1; h <= 6; h++ {
			v += math.Sin(2*math.Pi*140*float64(h)*t) / float64(h)
		}
		x[vowelStart+i] += 0.35 * env * v
	}
	return x
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(x []float64) float64 {
	var peak float64
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}

// FirstAbove returns the first index whose absolute value exceeds threshold,
// or -1.
func FirstAbove(x []float64, threshold float64) int {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return i
		}
	}
	return -1
}
