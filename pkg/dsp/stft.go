package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrogram is a short-time power spectrum laid out as
// Power[frame][bin], with NFFT/2+1 bins per frame.
type PowerSpectrogram struct {
	Power      [][]float64
	NFFT       int
	Hop        int
	SampleRate int
}

// Bins returns the number of frequency bins per frame.
func (s *PowerSpectrogram) Bins() int { return s.NFFT/2 + 1 }

// BinFrequency returns the center frequency of bin k in Hz.
func (s *PowerSpectrogram) BinFrequency(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.NFFT)
}

// STFT computes a Hann-windowed power spectrogram. With center set, the
// signal is padded by nfft/2 zeros on both sides so frame t is centered on
// sample t*hop; otherwise frames start at sample t*hop and a signal shorter
// than nfft yields one zero-padded frame.
func STFT(x []float64, sampleRate, nfft, hop int, center bool) *PowerSpectrogram {
	spec := &PowerSpectrogram{NFFT: nfft, Hop: hop, SampleRate: sampleRate}
	if len(x) == 0 || nfft <= 0 || hop <= 0 {
		return spec
	}

	src := x
	if center {
		src = make([]float64, len(x)+nfft)
		copy(src[nfft/2:], x)
	}

	frames := 1
	if len(src) > nfft {
		frames = 1 + (len(src)-nfft)/hop
	}

	win := window.Hann(nfft)
	buf := make([]float64, nfft)
	bins := nfft/2 + 1
	spec.Power = make([][]float64, frames)
	for t := 0; t < frames; t++ {
		start := t * hop
		for i := range buf {
			buf[i] = 0
		}
		copy(buf, src[start:min(start+nfft, len(src))])
		floats.Mul(buf, win)

		coeffs := fft.FFTReal(buf)
		row := make([]float64, bins)
		for k := range row {
			re, im := real(coeffs[k]), imag(coeffs[k])
			row[k] = re*re + im*im
		}
		spec.Power[t] = row
	}
	return spec
}

// PowerToDB converts power values to decibels relative to the largest value
// in the grid, flooring at amin and clipping everything more than topDB
// below the peak. The input is not modified.
func PowerToDB(power [][]float64, amin, topDB float64) [][]float64 {
	ref := amin
	for _, row := range power {
		if len(row) > 0 {
			ref = math.Max(ref, floats.Max(row))
		}
	}
	refDB := 10 * math.Log10(ref)

	out := make([][]float64, len(power))
	floor := math.Inf(-1)
	for t, row := range power {
		out[t] = make([]float64, len(row))
		for k, v := range row {
			db := 10*math.Log10(math.Max(amin, v)) - refDB
			out[t][k] = db
			floor = math.Max(floor, db)
		}
	}
	if topDB > 0 {
		floor -= topDB
		for _, row := range out {
			for k, v := range row {
				if v < floor {
					row[k] = floor
				}
			}
		}
	}
	return out
}
