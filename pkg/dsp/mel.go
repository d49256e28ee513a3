package dsp

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMin     = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz < melLogMinHz {
		return hz / melLinearStep
	}
	return melLogMin + math.Log(hz/melLogMinHz)/melLogStep
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel < melLogMin {
		return mel * melLinearStep
	}
	return melLogMinHz * math.Exp(melLogStep*(mel-melLogMin))
}

// MelFilterBank builds nMels area-normalized triangular filters spanning
// [fmin, fmax] over the nfft/2+1 bins of a spectrum at sampleRate.
func MelFilterBank(sampleRate, nfft, nMels int, fmin, fmax float64) [][]float64 {
	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}

	lo, hi := HzToMel(fmin), HzToMel(fmax)
	edges := make([]float64, nMels+2)
	for i := range edges {
		edges[i] = MelToHz(lo + (hi-lo)*float64(i)/float64(nMels+1))
	}

	bank := make([][]float64, nMels)
	for m := range bank {
		bank[m] = make([]float64, bins)
		left, mid, right := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (right - left)
		for k, f := range fftFreqs {
			lower := (f - left) / (mid - left)
			upper := (right - f) / (right - mid)
			if w := math.Min(lower, upper); w > 0 {
				bank[m][k] = w * norm
			}
		}
	}
	return bank
}

// ApplyFilterBank projects every frame of a power spectrogram onto the bank.
func ApplyFilterBank(power [][]float64, bank [][]float64) [][]float64 {
	out := make([][]float64, len(power))
	for t, row := range power {
		out[t] = make([]float64, len(bank))
		for m, weights := range bank {
			var sum float64
			for k, w := range weights {
				if w != 0 {
					sum += w * row[k]
				}
			}
			out[t][m] = sum
		}
	}
	return out
}
