package enhance

import (
	"github.com/Skryldev/talkinghead/pkg/dsp"
	"go.uber.org/zap"
)

// AdvanceForSync moves the whole signal leadSeconds earlier when it contains
// at least one onset: the leading samples are dropped and the same number of
// zeros is appended, so the length never changes. Without onsets (silence, a
// steady tone) the signal is returned as a copy. The second result holds the
// backtracked onset frames that triggered the shift.
func (e *Enhancer) AdvanceForSync(x []float64, sampleRate int, leadSeconds float64) ([]float64, []int) {
	onsets := dsp.DetectOnsets(x, sampleRate, dsp.DefaultOnsetConfig())
	if len(onsets) == 0 {
		y := make([]float64, len(x))
		copy(y, x)
		return y, nil
	}

	shift := LeadSamples(sampleRate, leadSeconds)
	e.log.Info("lip-sync timing: advancing audio",
		zap.Int("onsets", len(onsets)),
		zap.Int("shift_samples", shift),
	)
	return ShiftEarlier(x, shift), onsets
}

// LeadSamples converts a lead time to a whole number of samples
func LeadSamples(sampleRate int, leadSeconds float64) int {
	return max(int(leadSeconds*float64(sampleRate)), 0)
}

// ShiftEarlier returns x advanced by n samples with zeros padded at the tail.
// Shifting by the full length or more yields all zeros.
func ShiftEarlier(x []float64, n int) []float64 {
	y := make([]float64, len(x))
	if n < len(x) {
		copy(y, x[max(n, 0):])
	}
	return y
}
