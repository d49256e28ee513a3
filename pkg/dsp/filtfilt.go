package dsp

// padLen mirrors the edge length used by forward-backward filtering:
// three times the number of filter taps, less trailing zero coefficients.
func (s SOS) padLen() int {
	zb, za := 0, 0
	for _, sec := range s {
		if sec[2] == 0 {
			zb++
		}
		if sec[5] == 0 {
			za++
		}
	}
	return 3 * (2*len(s) + 1 - min(zb, za))
}

// SteadyState returns the per-section initial conditions of the cascade's
// step response, scaled so that a constant unit input produces no transient.
func (s SOS) SteadyState() [][2]float64 {
	zi := make([][2]float64, len(s))
	scale := 1.0
	for i, sec := range s {
		a0 := sec[3]
		b0, b1, b2 := sec[0]/a0, sec[1]/a0, sec[2]/a0
		a1, a2 := sec[4]/a0, sec[5]/a0

		// Solve (I - A^T) zi = B for the transposed direct form II state.
		det := 1 + a1 + a2
		r0 := b1 - a1*b0
		r1 := b2 - a2*b0
		zi[i][0] = scale * (r0 + r1) / det
		zi[i][1] = scale * ((1+a1)*r1 - a2*r0) / det

		scale *= (b0 + b1 + b2) / (1 + a1 + a2)
	}
	return zi
}

// Filter runs x through the cascade once, starting from the given section
// states multiplied by x0. A nil zi starts from rest.
func (s SOS) Filter(x []float64, zi [][2]float64, x0 float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	for i, sec := range s {
		a0 := sec[3]
		b0, b1, b2 := sec[0]/a0, sec[1]/a0, sec[2]/a0
		a1, a2 := sec[4]/a0, sec[5]/a0

		var z0, z1 float64
		if zi != nil {
			z0, z1 = zi[i][0]*x0, zi[i][1]*x0
		}
		for n, v := range y {
			out := b0*v + z0
			z0 = b1*v - a1*out + z1
			z1 = b2*v - a2*out
			y[n] = out
		}
	}
	return y
}

// FiltFilt applies the cascade forward and then backward so the result has
// zero phase: no group delay and a response symmetric in time. The input is
// extended at both ends by odd reflection to tame edge transients. The
// output always has the length of x.
func (s SOS) FiltFilt(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}
	if len(s) == 0 {
		out := make([]float64, n)
		copy(out, x)
		return out
	}

	edge := min(s.padLen(), n-1)
	ext := oddExtend(x, edge)
	zi := s.SteadyState()

	y := s.Filter(ext, zi, ext[0])
	reverse(y)
	y = s.Filter(y, zi, y[0])
	reverse(y)

	out := make([]float64, n)
	copy(out, y[edge:edge+n])
	return out
}

func oddExtend(x []float64, edge int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*edge)
	for i := 0; i < edge; i++ {
		ext[i] = 2*x[0] - x[edge-i]
		ext[edge+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[edge:], x)
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
