package enhance

import (
	"testing"

	"github.com/Skryldev/talkinghead/internal/testsignal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftEarlier(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"none", 0, []float64{1, 2, 3, 4, 5}},
		{"two", 2, []float64{3, 4, 5, 0, 0}},
		{"full length", 5, []float64{0, 0, 0, 0, 0}},
		{"beyond length", 9, []float64{0, 0, 0, 0, 0}},
		{"negative", -3, []float64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShiftEarlier(x, tt.n))
		})
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, x)
}

func TestLeadSamples(t *testing.T) {
	assert.Equal(t, 320, LeadSamples(16000, 0.02))
	assert.Equal(t, 882, LeadSamples(44100, 0.02))
	assert.Equal(t, 0, LeadSamples(16000, -1))
}

func TestAdvanceForSync(t *testing.T) {
	const sr = 16000
	e := New(nil)

	t.Run("silence is a no-op", func(t *testing.T) {
		x := testsignal.Silence(2 * sr)
		y, onsets := e.AdvanceForSync(x, sr, 0.02)
		assert.Empty(t, onsets)
		assert.Equal(t, x, y)
	})

	t.Run("steady tone is a no-op", func(t *testing.T) {
		x := testsignal.Sine(2*sr, sr, 440, 0.5)
		y, onsets := e.AdvanceForSync(x, sr, 0.02)
		assert.Empty(t, onsets)
		assert.Equal(t, x, y)
	})

	t.Run("speech is advanced", func(t *testing.T) {
		x := testsignal.Syllable(sr, 2, 0.5)
		y, onsets := e.AdvanceForSync(x, sr, 0.02)
		require.NotEmpty(t, onsets)
		require.Len(t, y, len(x))

		assert.Equal(t, x[320:], y[:len(x)-320])
		assert.Equal(t, make([]float64, 320), y[len(x)-320:])
		assert.Equal(t, testsignal.FirstAbove(x, 0.01)-320, testsignal.FirstAbove(y, 0.01))
	})
}
