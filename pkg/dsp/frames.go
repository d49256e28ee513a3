package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Analysis grid shared by the frame features.
const (
	FrameLength = 2048
	HopLength   = 512
)

// zeroThreshold is the magnitude at or below which a sample counts as zero
// (and therefore positive) when looking for sign changes.
const zeroThreshold = 1e-10

// FrameCount returns the number of centered frames for n samples.
func FrameCount(n, hop int) int {
	if n == 0 || hop <= 0 {
		return 0
	}
	return 1 + n/hop
}

// ZeroCrossingRate returns, per centered frame, the fraction of samples whose
// sign differs from the previous sample. The signal is padded by repeating
// its edge samples.
func ZeroCrossingRate(x []float64, frameLength, hop int) []float64 {
	frames := FrameCount(len(x), hop)
	if frames == 0 {
		return nil
	}

	half := frameLength / 2
	padded := make([]float64, len(x)+2*half)
	for i := range padded {
		j := min(max(i-half, 0), len(x)-1)
		padded[i] = x[j]
	}

	neg := make([]bool, len(padded))
	for i, v := range padded {
		if math.Abs(v) <= zeroThreshold {
			v = 0
		}
		neg[i] = math.Signbit(v)
	}

	zcr := make([]float64, frames)
	for f := range zcr {
		start := f * hop
		crossings := 0
		for j := start + 1; j < start+frameLength; j++ {
			if neg[j] != neg[j-1] {
				crossings++
			}
		}
		zcr[f] = float64(crossings) / float64(frameLength)
	}
	return zcr
}

// RMS returns the root-mean-square energy of each centered frame, with the
// signal padded by zeros.
func RMS(x []float64, frameLength, hop int) []float64 {
	frames := FrameCount(len(x), hop)
	if frames == 0 {
		return nil
	}

	half := frameLength / 2
	padded := make([]float64, len(x)+2*half)
	copy(padded[half:], x)

	rms := make([]float64, frames)
	for f := range rms {
		seg := padded[f*hop : f*hop+frameLength]
		rms[f] = math.Sqrt(floats.Dot(seg, seg) / float64(frameLength))
	}
	return rms
}

// AbsDiff returns |x[i] - x[i-1]| with x[0] standing in as its own
// predecessor, so the first element is always zero.
func AbsDiff(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	d := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		d[i] = math.Abs(x[i] - x[i-1])
	}
	return d
}
