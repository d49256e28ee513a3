package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// OnsetConfig controls spectral-flux onset detection. Durations are in
// seconds and converted to frames with the hop size.
type OnsetConfig struct {
	NFFT  int
	Hop   int
	Mels  int
	TopDB float64

	// MinFluxDB is the smallest envelope peak, in mean dB of positive flux,
	// that counts as a sound event at all. Envelopes below it (silence, a
	// steady tone) carry no onsets.
	MinFluxDB float64

	Delta   float64
	PreMax  float64
	PostMax float64
	PreAvg  float64
	PostAvg float64
	Wait    float64
}

// DefaultOnsetConfig returns the detector settings used by the aligner.
func DefaultOnsetConfig() OnsetConfig {
	return OnsetConfig{
		NFFT:      FrameLength,
		Hop:       HopLength,
		Mels:      128,
		TopDB:     80,
		MinFluxDB: 1,
		Delta:     0.07,
		PreMax:    0.03,
		PostMax:   0,
		PreAvg:    0.10,
		PostAvg:   0.10,
		Wait:      0.03,
	}
}

// OnsetStrength returns the onset envelope of x: for each STFT frame the mean
// over mel bands of the positive change in log power since the previous
// frame. The first frame is always zero.
func OnsetStrength(x []float64, sampleRate int, cfg OnsetConfig) []float64 {
	if len(x) == 0 || sampleRate <= 0 {
		return nil
	}
	spec := STFT(x, sampleRate, cfg.NFFT, cfg.Hop, false)
	bank := MelFilterBank(sampleRate, cfg.NFFT, cfg.Mels, 0, float64(sampleRate)/2)
	db := PowerToDB(ApplyFilterBank(spec.Power, bank), 1e-10, cfg.TopDB)

	env := make([]float64, len(db))
	for t := 1; t < len(db); t++ {
		var flux float64
		for m := range db[t] {
			if d := db[t][m] - db[t-1][m]; d > 0 {
				flux += d
			}
		}
		env[t] = flux / float64(len(db[t]))
	}
	return env
}

// DetectOnsets returns onset frame indices of x, each moved back to the
// nearest preceding local minimum of the onset envelope.
func DetectOnsets(x []float64, sampleRate int, cfg OnsetConfig) []int {
	env := OnsetStrength(x, sampleRate, cfg)
	if len(env) == 0 || floats.Max(env) < cfg.MinFluxDB {
		return nil
	}

	lo := floats.Min(env)
	span := floats.Max(env) - lo
	norm := make([]float64, len(env))
	for i, v := range env {
		norm[i] = (v - lo) / span
	}

	framesPerSec := float64(sampleRate) / float64(cfg.Hop)
	toFrames := func(sec float64) int { return int(math.Floor(sec * framesPerSec)) }

	onsets := PeakPick(norm,
		toFrames(cfg.PreMax), toFrames(cfg.PostMax)+1,
		toFrames(cfg.PreAvg), toFrames(cfg.PostAvg)+1,
		cfg.Delta, toFrames(cfg.Wait))
	return Backtrack(onsets, norm)
}

// PeakPick selects frames n where x[n] is the maximum of x[n-preMax:n+postMax],
// is at least delta above the mean of x[n-preAvg:n+postAvg], and comes more
// than wait frames after the previously selected frame.
func PeakPick(x []float64, preMax, postMax, preAvg, postAvg int, delta float64, wait int) []int {
	var peaks []int
	last := math.MinInt / 2
	for n := range x {
		lo, hi := max(n-preMax, 0), min(n+postMax, len(x))
		if hi <= lo || x[n] < floats.Max(x[lo:hi]) {
			continue
		}
		lo, hi = max(n-preAvg, 0), min(n+postAvg, len(x))
		if x[n] < floats.Sum(x[lo:hi])/float64(hi-lo)+delta {
			continue
		}
		if n > last+wait {
			peaks = append(peaks, n)
			last = n
		}
	}
	return peaks
}

// Backtrack moves each event to the latest local minimum of energy at or
// before it. Frame 0 always counts as a minimum.
func Backtrack(events []int, energy []float64) []int {
	if len(events) == 0 {
		return nil
	}
	minima := []int{0}
	for i := 1; i+1 < len(energy); i++ {
		if energy[i] <= energy[i-1] && energy[i] < energy[i+1] {
			minima = append(minima, i)
		}
	}

	out := make([]int, len(events))
	for i, e := range events {
		best := 0
		for _, m := range minima {
			if m > e {
				break
			}
			best = m
		}
		out[i] = best
	}
	return out
}
