// Package dsp holds the numeric building blocks of the enhancement chain:
// IIR filter design and zero-phase application, frame features, peak
// picking, short-time spectra and onset detection. Everything here works on
// fully materialized []float64 buffers and keeps no state between calls.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// NyquistClamp is the fraction of the Nyquist frequency a high cutoff is
// pulled down to when it reaches or exceeds Nyquist.
const NyquistClamp = 0.99

// Section is one biquad in [b0 b1 b2 a0 a1 a2] order.
type Section [6]float64

// SOS is a cascade of second-order sections.
type SOS []Section

// BandpassDesign is a designed Butterworth band-pass filter together with the
// cutoffs that were actually used.
type BandpassDesign struct {
	Sections SOS
	LowHz    float64
	HighHz   float64
	Order    int

	// Clamped reports that the requested high cutoff was at or above Nyquist
	// and HighHz holds the corrected value.
	Clamped bool
}

// EffectiveBand returns the cutoffs a band-pass design would use for the
// given request, and whether the high cutoff had to be clamped.
func EffectiveBand(sampleRate int, lowHz, highHz float64) (float64, float64, bool) {
	nyquist := float64(sampleRate) / 2
	if highHz >= nyquist {
		return lowHz, NyquistClamp * nyquist, true
	}
	return lowHz, highHz, false
}

// DesignBandpass designs a digital Butterworth band-pass of the given order
// as order second-order sections. The analog low-pass prototype is moved to
// the pre-warped band and discretized with the bilinear transform.
func DesignBandpass(sampleRate int, lowHz, highHz float64, order int) (*BandpassDesign, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dsp: sample rate must be positive, got %d", sampleRate)
	}
	if order < 1 {
		return nil, fmt.Errorf("dsp: filter order must be at least 1, got %d", order)
	}

	low, high, clamped := EffectiveBand(sampleRate, lowHz, highHz)
	if low <= 0 || low >= high {
		return nil, fmt.Errorf("dsp: invalid band [%.2f, %.2f] Hz at %d Hz", low, high, sampleRate)
	}

	// Bilinear transform is carried out at fs = 2, hence 2*fs = 4.
	const fs2 = 4.0
	wl := fs2 * math.Tan(math.Pi*low/float64(sampleRate))
	wh := fs2 * math.Tan(math.Pi*high/float64(sampleRate))
	bw := wh - wl
	wo2 := complex(wl*wh, 0)

	poles := make([]complex128, 0, 2*order)
	for k := 0; k < order; k++ {
		m := float64(-order + 1 + 2*k)
		p := -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
		pl := p * complex(bw/2, 0)
		d := cmplx.Sqrt(pl*pl - wo2)
		poles = append(poles, pl+d, pl-d)
	}

	// order zeros at s=0 map to z=+1, the remaining order zeros at infinity
	// map to z=-1.
	num := complex(math.Pow(fs2, float64(order)), 0)
	den := complex(1, 0)
	digital := make([]complex128, len(poles))
	for i, p := range poles {
		den *= complex(fs2, 0) - p
		digital[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
	}
	gain := math.Pow(bw, float64(order)) * real(num/den)

	sections := pairPoles(digital)
	sections[0][0] *= gain
	sections[0][2] *= gain

	return &BandpassDesign{
		Sections: sections,
		LowHz:    low,
		HighHz:   high,
		Order:    order,
		Clamped:  clamped,
	}, nil
}

// pairPoles builds one biquad per conjugate pole pair, each carrying the
// numerator 1 - z^-2. Real poles are paired with each other. Sections are
// ordered by pole radius so the most resonant section runs last.
func pairPoles(poles []complex128) SOS {
	const tol = 1e-12

	type pair struct {
		a1, a2, radius float64
	}
	var pairs []pair
	var reals []float64
	for _, p := range poles {
		switch {
		case imag(p) > tol:
			pairs = append(pairs, pair{a1: -2 * real(p), a2: real(p)*real(p) + imag(p)*imag(p), radius: cmplx.Abs(p)})
		case math.Abs(imag(p)) <= tol:
			reals = append(reals, real(p))
		}
	}
	sort.Float64s(reals)
	for i := 0; i+1 < len(reals); i += 2 {
		r1, r2 := reals[i], reals[i+1]
		pairs = append(pairs, pair{a1: -(r1 + r2), a2: r1 * r2, radius: math.Max(math.Abs(r1), math.Abs(r2))})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].radius < pairs[j].radius })

	sos := make(SOS, len(pairs))
	for i, p := range pairs {
		sos[i] = Section{1, 0, -1, 1, p.a1, p.a2}
	}
	return sos
}

// Response evaluates the complex frequency response of the cascade at the
// normalized angular frequency w (radians per sample).
func (s SOS) Response(w float64) complex128 {
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	h := complex(1, 0)
	for _, sec := range s {
		num := complex(sec[0], 0) + complex(sec[1], 0)*z1 + complex(sec[2], 0)*z2
		den := complex(sec[3], 0) + complex(sec[4], 0)*z1 + complex(sec[5], 0)*z2
		h *= num / den
	}
	return h
}
