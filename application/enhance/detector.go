package enhance

import (
	"math"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/pkg/dsp"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// High band whose sudden energy changes mark plosive releases.
var detectorBand = model.FilterSpec{LowHz: 2000, HighHz: 12000, Order: model.DefaultFilterOrder}

// DetectorConfig tunes plosive peak picking
type DetectorConfig struct {
	// PercentileThreshold is the score percentile (0-100) a frame must reach
	PercentileThreshold float64

	// MinSeparationMs is the minimum spacing between two events
	MinSeparationMs float64

	// MinRelativeScore is a score floor expressed as a fraction of the
	// signal's peak amplitude. Steady tones leave only numerical residue in
	// the score, which must never count as an event.
	MinRelativeScore float64
}

// DefaultDetectorConfig returns the detector defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		PercentileThreshold: 96,
		MinSeparationMs:     80,
		MinRelativeScore:    1e-4,
	}
}

// DetectorConfigFrom derives detector settings from enhancement options
func DetectorConfigFrom(opts *model.EnhancementOptions) DetectorConfig {
	cfg := DefaultDetectorConfig()
	cfg.PercentileThreshold = opts.PercentileThreshold
	cfg.MinSeparationMs = opts.MinEventSeparationMs
	return cfg
}

// DetectPlosives scores every analysis frame by zero-crossing rate times the
// frame-to-frame change of high-band RMS, then keeps frames that are local
// maxima above the percentile threshold and at least MinSeparationMs apart.
// Frames outside interiorFrames score zero. It returns the events in frame
// order along with all frame scores.
func (e *Enhancer) DetectPlosives(x []float64, sampleRate int, cfg DetectorConfig) ([]model.TransientEvent, []float64) {
	if len(x) == 0 {
		return nil, nil
	}

	zcr := dsp.ZeroCrossingRate(x, dsp.FrameLength, dsp.HopLength)
	high := e.ApplyBandpass(x, sampleRate, detectorBand)
	energyDiff := dsp.AbsDiff(dsp.RMS(high, dsp.FrameLength, dsp.HopLength))

	n := min(len(zcr), len(energyDiff))
	scores := make([]float64, len(zcr))
	lo, hi := interiorFrames(len(x))
	for i := max(lo, 0); i < n && i <= hi; i++ {
		scores[i] = zcr[i] * energyDiff[i]
	}

	floor := cfg.MinRelativeScore * floats.Norm(x, math.Inf(1))
	height := max(dsp.Percentile(scores, cfg.PercentileThreshold), floor)
	distance := max(int(cfg.MinSeparationMs/1000*float64(sampleRate)/dsp.HopLength), 1)

	peaks := dsp.FindPeaks(scores, height, distance)
	events := make([]model.TransientEvent, len(peaks))
	for i, p := range peaks {
		events[i] = model.TransientEvent{Frame: p, Score: scores[p]}
	}

	e.log.Debug("plosive detection",
		zap.Int("frames", len(scores)),
		zap.Float64("threshold", height),
		zap.Int("min_separation_frames", distance),
		zap.Int("events", len(events)),
	)
	return events, scores
}

// interiorFrames returns the first and last frame whose RMS difference
// compares two windows lying wholly inside an n sample signal, at least half
// a frame clear of either end. Closer to the edges the zero padding and the
// filter start-up make the RMS ramp even for a steady tone.
func interiorFrames(n int) (lo, hi int) {
	half := dsp.FrameLength / 2
	lo = (2*half+dsp.HopLength-1)/dsp.HopLength + 1
	if n < 2*half {
		return lo, -1
	}
	return lo, (n - 2*half) / dsp.HopLength
}
