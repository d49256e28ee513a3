package dsp

import (
	"math"
	"testing"

	"github.com/Skryldev/talkinghead/internal/testsignal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiltFiltZeroPhaseImpulse(t *testing.T) {
	const n, center = 4001, 2000
	d, err := DesignBandpass(16000, 2000, 12000, 8)
	require.NoError(t, err)

	y := d.Sections.FiltFilt(testsignal.Impulse(n, center))
	require.Len(t, y, n)

	peak := 0
	for i := range y {
		if math.Abs(y[i]) > math.Abs(y[peak]) {
			peak = i
		}
	}
	assert.Equal(t, center, peak, "zero-phase response must peak at the impulse")

	// The far tails carry edge padding effects; check the body of the response.
	for k := 1; k <= center/2; k++ {
		assert.InDelta(t, y[center-k], y[center+k], 1e-8, "asymmetry at offset %d", k)
	}
}

func TestFiltFiltPreservesLength(t *testing.T) {
	d, err := DesignBandpass(16000, 50, 14000, 8)
	require.NoError(t, err)

	noise := testsignal.NewNoise(1)
	for _, n := range []int{0, 1, 2, 3, 10, 50, 51, 52, 1000} {
		x := make([]float64, n)
		for i := range x {
			x[i] = noise.Next()
		}
		y := d.Sections.FiltFilt(x)
		assert.Len(t, y, n, "length %d", n)
		for _, v := range y {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "length %d produced %v", n, v)
		}
	}
}

func TestFiltFiltRemovesDC(t *testing.T) {
	d, err := DesignBandpass(16000, 50, 7000, 8)
	require.NoError(t, err)

	x := make([]float64, 8000)
	for i := range x {
		x[i] = 0.5
	}
	y := d.Sections.FiltFilt(x)
	assert.Less(t, testsignal.PeakAbs(y), 1e-9)
}

func TestFiltFiltDoesNotModifyInput(t *testing.T) {
	d, err := DesignBandpass(16000, 50, 7000, 4)
	require.NoError(t, err)

	x := testsignal.Sine(1024, 16000, 440, 0.5)
	orig := append([]float64(nil), x...)
	d.Sections.FiltFilt(x)
	assert.Equal(t, orig, x)
}

func TestSteadyStateHasNoTransient(t *testing.T) {
	sos := SOS{{0.2, 0.3, 0.1, 1, -0.5, 0.2}}
	x := make([]float64, 64)
	for i := range x {
		x[i] = 1
	}
	y := sos.Filter(x, sos.SteadyState(), 1)
	dc := 0.6 / 0.7
	for i, v := range y {
		assert.InDelta(t, dc, v, 1e-12, "sample %d", i)
	}
}

func TestFilterFromRest(t *testing.T) {
	sos := SOS{{1, 0, 0, 1, -0.5, 0}}
	y := sos.Filter([]float64{1, 0, 0, 0}, nil, 0)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, y, 1e-12)
}
