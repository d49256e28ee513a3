package dsp

import (
	"testing"

	"github.com/Skryldev/talkinghead/internal/testsignal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestSTFTPeakBin(t *testing.T) {
	const sr = 16000
	x := testsignal.Sine(sr, sr, 1000, 0.5)

	spec := STFT(x, sr, 2048, 512, true)
	require.Len(t, spec.Power, FrameCount(len(x), 512))
	assert.Equal(t, 1025, spec.Bins())

	row := spec.Power[10]
	assert.Equal(t, 128, floats.MaxIdx(row))
	assert.InDelta(t, 1000.0, spec.BinFrequency(128), 1e-9)
}

func TestSTFTWithoutCentering(t *testing.T) {
	spec := STFT(make([]float64, 5000), 16000, 2048, 512, false)
	assert.Len(t, spec.Power, 1+(5000-2048)/512)

	short := STFT(make([]float64, 100), 16000, 2048, 512, false)
	assert.Len(t, short.Power, 1)

	assert.Empty(t, STFT(nil, 16000, 2048, 512, false).Power)
}

func TestPowerToDB(t *testing.T) {
	db := PowerToDB([][]float64{{1, 0.1, 0}, {1e-12, 0.01, 0.5}}, 1e-10, 80)
	assert.InDelta(t, 0.0, db[0][0], 1e-12)
	assert.InDelta(t, -10.0, db[0][1], 1e-9)
	assert.InDelta(t, -80.0, db[0][2], 1e-9, "clipped at top_db below the peak")
	assert.InDelta(t, -20.0, db[1][1], 1e-9)
}

func TestMelScale(t *testing.T) {
	assert.InDelta(t, 15.0, HzToMel(1000), 1e-12)
	assert.InDelta(t, 7.5, HzToMel(500), 1e-12)
	for _, hz := range []float64{0, 120, 999, 1000, 4000, 11025} {
		assert.InDelta(t, hz, MelToHz(HzToMel(hz)), 1e-6)
	}

	bank := MelFilterBank(16000, 2048, 128, 0, 8000)
	require.Len(t, bank, 128)
	for m, row := range bank {
		require.Len(t, row, 1025)
		assert.GreaterOrEqual(t, floats.Min(row), 0.0)
		assert.Positive(t, floats.Sum(row), "band %d is empty", m)
	}
}

func TestDetectOnsets(t *testing.T) {
	const sr = 16000
	cfg := DefaultOnsetConfig()

	t.Run("silence", func(t *testing.T) {
		assert.Empty(t, DetectOnsets(testsignal.Silence(2*sr), sr, cfg))
	})

	t.Run("steady tone", func(t *testing.T) {
		assert.Empty(t, DetectOnsets(testsignal.Sine(2*sr, sr, 440, 0.5), sr, cfg))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, DetectOnsets(nil, sr, cfg))
	})

	t.Run("burst", func(t *testing.T) {
		x := testsignal.Silence(2 * sr)
		testsignal.AddBurst(x, sr, 320, 0.8, 3)

		onsets := DetectOnsets(x, sr, cfg)
		require.NotEmpty(t, onsets)

		// Frame t spans [512t, 512t+2048); the burst first enters frame 28 and
		// backtracking lands on the quiet frame just before it.
		assert.Equal(t, 27, onsets[0])
	})
}

func TestBacktrack(t *testing.T) {
	energy := []float64{0.5, 0.2, 0.3, 0.9, 0.4, 0.1, 0.8, 1.0}
	assert.Equal(t, []int{1, 5, 0}, Backtrack([]int{3, 7, 0}, energy))
	assert.Nil(t, Backtrack(nil, energy))
}

func TestPeakPick(t *testing.T) {
	x := []float64{0, 0, 1, 0, 0, 0, 0.9, 0.95, 0, 0}
	assert.Equal(t, []int{2, 7}, PeakPick(x, 1, 2, 2, 3, 0.1, 0))
	assert.Equal(t, []int{2}, PeakPick(x, 1, 2, 2, 3, 0.1, 5), "wait suppresses the second peak")
}
