package filters

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PadLength returns the number of samples FiltFilt extends each end of the
// signal by: three times the longer coefficient vector.
func PadLength(b, a []float64) int {
	return 3 * max(len(a), len(b))
}

// FiltFilt applies b/a forward and then backward, giving zero phase
// distortion and squaring the magnitude response.
//
// Edge transients are reduced by extending both ends with an odd reflection
// of PadLength samples and starting each pass from the steady state of
// LFilterZi scaled by the first sample of that pass. The output has the
// length of x. Signals with len(x) <= PadLength fail with ErrSignalTooShort.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	edge := PadLength(b, a)
	if len(x) <= edge {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShort, len(x), edge)
	}

	zi, err := LFilterZi(b, a)
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, edge)

	forward, _, err := LFilter(b, a, ext, scaled(zi, ext[0]))
	if err != nil {
		return nil, err
	}

	reverse(forward)
	backward, _, err := LFilter(b, a, forward, scaled(zi, forward[0]))
	if err != nil {
		return nil, err
	}
	reverse(backward)

	out := make([]float64, len(x))
	copy(out, backward[edge:edge+len(x)])
	return out, nil
}

// FiltFiltColumns zero-phase filters every column of a time x channels
// matrix and returns a new matrix of the same shape.
func FiltFiltColumns(b, a []float64, m *mat.Dense) (*mat.Dense, error) {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, m)
		y, err := FiltFilt(b, a, col)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", j, err)
		}
		out.SetCol(j, y)
	}
	return out, nil
}

// oddExtend reflects n samples about each endpoint: 2*x[0]-x[n..1] before,
// 2*x[last]-x[last-1..last-n] after.
func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	ext := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}
	return ext
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
