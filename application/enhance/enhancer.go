package enhance

import (
	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/pkg/dsp"
	"go.uber.org/zap"
)

// DefaultStandaloneFactor is the enhancement strength used when plosive
// enhancement runs on its own rather than inside the pipeline.
const DefaultStandaloneFactor = 1.5

const (
	// enhanceHalfWindow is the number of samples processed on each side of an event.
	enhanceHalfWindow = 1024

	dryGain = 0.9
	wetGain = 0.1
)

// Narrower band blended back around each plosive.
var enhanceBand = model.FilterSpec{LowHz: 1500, HighHz: 8000, Order: model.DefaultFilterOrder}

// EnhancePlosives boosts high-frequency content in a ±1024 sample window
// around every detected plosive: each window becomes
// window*0.9 + highband(window)*factor*0.1. Windows are rewritten in event
// order and each one is read after earlier writes, so where two windows
// overlap the later event's write wins. The input is left untouched; with no
// events the returned slice is a plain copy.
func (e *Enhancer) EnhancePlosives(x []float64, sampleRate int, factor float64, cfg DetectorConfig) ([]float64, []model.TransientEvent) {
	y := make([]float64, len(x))
	copy(y, x)

	events, _ := e.DetectPlosives(x, sampleRate, cfg)
	if len(events) == 0 {
		e.log.Info("plosive enhancement: no significant plosives detected")
		return y, nil
	}
	e.log.Info("plosive enhancement: found potential plosives", zap.Int("count", len(events)))

	for _, ev := range events {
		center := ev.SampleIndex(dsp.HopLength)
		start := max(0, center-enhanceHalfWindow)
		end := min(len(y), center+enhanceHalfWindow)
		if end <= start {
			continue
		}

		segment := y[start:end]
		high := e.ApplyBandpass(segment, sampleRate, enhanceBand)
		for i := range segment {
			segment[i] = segment[i]*dryGain + high[i]*factor*wetGain
		}
	}
	return y, events
}
