package enhance

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// PeakNormalize scales x in place so its largest magnitude is ceiling, but
// only when the peak exceeds ceiling. It returns the applied scale (1 when
// nothing changed). All-zero and empty signals are left alone.
func PeakNormalize(x []float64, ceiling float64) float64 {
	if len(x) == 0 {
		return 1
	}
	peak := floats.Norm(x, math.Inf(1))
	if peak <= ceiling || peak == 0 {
		return 1
	}
	scale := ceiling / peak
	floats.Scale(scale, x)
	return scale
}
