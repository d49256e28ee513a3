// Package enhance implements the driving-audio stages: speech band filtering,
// plosive detection and enhancement, timing advance and peak normalization.
package enhance

import (
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/pkg/dsp"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"go.uber.org/zap"
)

// Enhancer runs the signal stages. It holds no per-signal state and is safe
// for concurrent use.
type Enhancer struct {
	log *logger.Logger
}

// New creates an Enhancer logging through log
func New(log *logger.Logger) *Enhancer {
	if log == nil {
		log = logger.Nop()
	}
	return &Enhancer{log: log}
}

// EffectiveBand returns the filter that will actually be designed for spec at
// sampleRate, and whether the high cutoff was clamped below Nyquist.
func EffectiveBand(sampleRate int, spec model.FilterSpec) (model.FilterSpec, bool) {
	low, high, clamped := dsp.EffectiveBand(sampleRate, spec.LowHz, spec.HighHz)
	order := spec.Order
	if order <= 0 {
		order = model.DefaultFilterOrder
	}
	return model.FilterSpec{LowHz: low, HighHz: high, Order: order}, clamped
}

// ApplyBandpass filters x with a zero-phase Butterworth band-pass and returns
// a new slice of the same length. A band that is empty at this sample rate
// (low cutoff at or above the clamped high cutoff) passes nothing.
func (e *Enhancer) ApplyBandpass(x []float64, sampleRate int, spec model.FilterSpec) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	eff, _ := EffectiveBand(sampleRate, spec)
	d, err := dsp.DesignBandpass(sampleRate, eff.LowHz, eff.HighHz, eff.Order)
	if err != nil {
		e.log.Warn("band-pass has no passband at this sample rate",
			zap.Float64("low_hz", spec.LowHz),
			zap.Float64("high_hz", spec.HighHz),
			zap.Int("sample_rate", sampleRate),
			zap.Error(err),
		)
		return make([]float64, len(x))
	}
	if d.Clamped {
		e.log.Debug("high cutoff clamped below nyquist",
			zap.Float64("requested_hz", spec.HighHz),
			zap.Float64("effective_hz", d.HighHz),
			zap.Int("sample_rate", sampleRate),
		)
	}
	return d.Sections.FiltFilt(x)
}
