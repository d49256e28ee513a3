package enhance

import (
	"fmt"
	"testing"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/internal/testsignal"
	"github.com/Skryldev/talkinghead/pkg/dsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlosives(t *testing.T) {
	const sr = 16000
	e := New(nil)
	cfg := DefaultDetectorConfig()

	t.Run("silence", func(t *testing.T) {
		events, scores := e.DetectPlosives(testsignal.Silence(sr), sr, cfg)
		assert.Empty(t, events)
		assert.Len(t, scores, dsp.FrameCount(sr, dsp.HopLength))
	})

	for _, freq := range []float64{440, 3000, 5000} {
		t.Run(fmt.Sprintf("pure tone %.0f Hz", freq), func(t *testing.T) {
			events, scores := e.DetectPlosives(testsignal.Sine(sr, sr, freq, 0.5), sr, cfg)
			assert.Empty(t, events)
			assert.Zero(t, scores[2], "edge frames are not scored")
		})
	}

	t.Run("single burst", func(t *testing.T) {
		x := testsignal.Silence(sr)
		testsignal.AddBurst(x, 10000, 80, 0.8, 1)

		events, scores := e.DetectPlosives(x, sr, cfg)
		require.Len(t, events, 1)
		assert.InDelta(t, 10000/dsp.HopLength, events[0].Frame, 2)
		assert.Equal(t, scores[events[0].Frame], events[0].Score)
		assert.Positive(t, events[0].Score)
	})

	t.Run("quiet burst", func(t *testing.T) {
		x := testsignal.Silence(sr)
		testsignal.AddBurst(x, 10000, 80, 0.05, 1)

		events, _ := e.DetectPlosives(x, sr, cfg)
		assert.Len(t, events, 1, "the score floor scales with the signal level")
	})

	t.Run("separation", func(t *testing.T) {
		x := testsignal.Silence(sr)
		testsignal.AddBurst(x, 6000, 80, 0.8, 1)
		testsignal.AddBurst(x, 7600, 80, 0.8, 2)

		events, _ := e.DetectPlosives(x, sr, cfg)
		assert.Len(t, events, 2)

		wide := cfg
		wide.MinSeparationMs = 200
		events, _ = e.DetectPlosives(x, sr, wide)
		assert.Len(t, events, 1)
	})

	t.Run("empty", func(t *testing.T) {
		events, scores := e.DetectPlosives(nil, sr, cfg)
		assert.Empty(t, events)
		assert.Empty(t, scores)
	})
}

func TestDetectorConfigFrom(t *testing.T) {
	opts := model.DefaultEnhancementOptions()
	opts.PercentileThreshold = 90
	opts.MinEventSeparationMs = 120

	cfg := DetectorConfigFrom(opts)
	assert.Equal(t, 90.0, cfg.PercentileThreshold)
	assert.Equal(t, 120.0, cfg.MinSeparationMs)
	assert.Equal(t, DefaultDetectorConfig().MinRelativeScore, cfg.MinRelativeScore)
}

func TestInteriorFrames(t *testing.T) {
	lo, hi := interiorFrames(16000)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 27, hi)

	// both compared windows start at least half a frame into the signal
	assert.GreaterOrEqual(t, (lo-1)*dsp.HopLength-dsp.FrameLength/2, dsp.FrameLength/2)
	assert.LessOrEqual(t, hi*dsp.HopLength+dsp.FrameLength/2, 16000-dsp.FrameLength/2)

	lo, hi = interiorFrames(1500)
	assert.Less(t, hi, lo)
}
