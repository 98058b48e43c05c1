package spectral

import (
	"fmt"
)

// Resample changes the length of x to num samples with the Fourier method:
// the spectrum is truncated (downsampling) or zero-padded (upsampling) and
// transformed back. The signal is treated as periodic, so a band-limited
// periodic input is reproduced exactly on the new sample grid.
//
// For an even number of retained bins the Nyquist component is split
// between the positive and negative halves when upsampling, and the two
// halves are merged when downsampling, keeping the output real.
func Resample(x []float64, num int) ([]float64, error) {
	if num <= 0 {
		return nil, fmt.Errorf("target length must be positive, got %d", num)
	}
	nx := len(x)
	if nx == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if num == nx {
		return append([]float64(nil), x...), nil
	}

	f := NewFFT()
	X := f.Compute(x)
	Y := make([]complex128, num)

	n := min(num, nx)
	nyq := n/2 + 1
	copy(Y[:nyq], X[:nyq])
	if n > 2 {
		neg := n - nyq
		copy(Y[num-neg:], X[nx-neg:])
	}

	if n%2 == 0 {
		switch {
		case num < nx:
			Y[n/2] += X[nx-n/2]
		case nx < num:
			Y[n/2] *= 0.5
			Y[num-n/2] = Y[n/2]
		}
	}

	y := f.ComputeInverseReal(Y)
	scale := float64(num) / float64(nx)
	for i := range y {
		y[i] *= scale
	}
	return y, nil
}

// ResampleRate resamples x from rate `from` to rate `to` (Hz). The output
// length is round(len(x) * to / from).
func ResampleRate(x []float64, from, to float64) ([]float64, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("sampling rates must be positive, got %g -> %g", from, to)
	}
	num := int(float64(len(x))*to/from + 0.5)
	return Resample(x, num)
}
