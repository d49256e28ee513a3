package dsp

import (
	"math"
	"sort"
)

// Percentile returns the q-th percentile (0..100) of values using linear
// interpolation between the closest ranks. It returns 0 for no values.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q = math.Min(math.Max(q, 0), 100)
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// LocalMaxima returns the indices of strict local maxima of x. A flat peak
// reports its middle sample; the first and last samples never qualify.
func LocalMaxima(x []float64) []int {
	var peaks []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

// FindPeaks returns the local maxima of x whose value is at least height,
// thinned so that no two kept peaks are closer than distance samples. When
// peaks collide the larger one wins. The result is in ascending order.
func FindPeaks(x []float64, height float64, distance int) []int {
	var peaks []int
	for _, p := range LocalMaxima(x) {
		if x[p] >= height {
			peaks = append(peaks, p)
		}
	}
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[peaks[order[a]]] < x[peaks[order[b]]] })

	for i := len(order) - 1; i >= 0; i-- {
		j := order[i]
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	kept := peaks[:0]
	for i, p := range peaks {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}
