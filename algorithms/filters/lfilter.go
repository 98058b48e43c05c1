package filters

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// normalize pads b and a to a common length and divides both by a[0].
func normalize(b, a []float64) ([]float64, []float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil, fmt.Errorf("empty coefficient vector")
	}
	if a[0] == 0 {
		return nil, nil, fmt.Errorf("leading denominator coefficient must be non-zero")
	}

	n := max(len(a), len(b))
	bn := make([]float64, n)
	an := make([]float64, n)
	for i, v := range b {
		bn[i] = v / a[0]
	}
	for i, v := range a {
		an[i] = v / a[0]
	}
	return bn, an, nil
}

// LFilter filters x with the rational transfer function b/a using the
// transposed direct form II structure:
//
//	y[n]   = b[0]x[n] + z[0]
//	z[i]   = b[i+1]x[n] + z[i+1] - a[i+1]y[n]
//	z[K-1] = b[K]x[n] - a[K]y[n]
//
// zi is the initial delay state of length max(len(a), len(b))-1, or nil for a
// filter at rest. The filtered signal and the final state are returned.
func LFilter(b, a, x, zi []float64) ([]float64, []float64, error) {
	bn, an, err := normalize(b, a)
	if err != nil {
		return nil, nil, err
	}

	order := len(an) - 1
	z := make([]float64, order)
	if zi != nil {
		if len(zi) != order {
			return nil, nil, fmt.Errorf("initial state has length %d, want %d", len(zi), order)
		}
		copy(z, zi)
	}

	y := make([]float64, len(x))
	for n, xn := range x {
		if order == 0 {
			y[n] = bn[0] * xn
			continue
		}
		yn := bn[0]*xn + z[0]
		for i := 0; i < order-1; i++ {
			z[i] = bn[i+1]*xn + z[i+1] - an[i+1]*yn
		}
		z[order-1] = bn[order]*xn - an[order]*yn
		y[n] = yn
	}
	return y, z, nil
}

// LFilterZi computes the initial state of LFilter that corresponds to the
// steady state of the step response: filtering a constant c starting from
// c*zi produces c*sum(b)/sum(a) from the first sample on.
//
// The state solves (I - A^T) zi = b[1:] - a[1:]*b[0], where A is the
// companion matrix of the denominator.
//
// Reference: F. Gustafsson, "Determining the initial states in
// forward-backward filtering", IEEE Trans. Signal Processing 44(4), 1996.
func LFilterZi(b, a []float64) ([]float64, error) {
	bn, an, err := normalize(b, a)
	if err != nil {
		return nil, err
	}

	order := len(an) - 1
	if order == 0 {
		return []float64{}, nil
	}

	iMinusA := mat.NewDense(order, order, nil)
	for i := range order {
		iMinusA.Set(i, i, 1)
		if i+1 < order {
			iMinusA.Set(i, i+1, -1)
		}
	}
	for i := range order {
		iMinusA.Set(i, 0, iMinusA.At(i, 0)+an[i+1])
	}

	rhs := mat.NewVecDense(order, nil)
	for i := range order {
		rhs.SetVec(i, bn[i+1]-an[i+1]*bn[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(iMinusA, rhs); err != nil {
		// a Condition error still carries a solution
		if _, ill := err.(mat.Condition); !ill {
			return nil, fmt.Errorf("solve initial state: %w", err)
		}
	}
	return mat.Col(nil, 0, &zi), nil
}
