package filters

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Response computes the magnitude (linear) and phase (radians) of the
// transfer function at the given frequency in Hz:
//
//	H(e^jw) = sum(B[k] e^-jwk) / sum(A[k] e^-jwk),  w = 2*pi*f/fs
func (tf TransferFunction) Response(frequency, sampleRate float64) (magnitude, phase float64) {
	h := tf.at(2 * math.Pi * frequency / sampleRate)
	return cmplx.Abs(h), cmplx.Phase(h)
}

// MagnitudeDB is the magnitude response at frequency in decibels.
func (tf TransferFunction) MagnitudeDB(frequency, sampleRate float64) float64 {
	mag, _ := tf.Response(frequency, sampleRate)
	return 20 * math.Log10(mag)
}

func (tf TransferFunction) at(w float64) complex128 {
	return evalPoly(tf.B, w) / evalPoly(tf.A, w)
}

func evalPoly(c []float64, w float64) complex128 {
	var sum complex128
	for k, v := range c {
		sum += complex(v, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}
	return sum
}

// Freqz evaluates the frequency response at n equally spaced frequencies
// covering [0, fs/2). It returns the frequencies in Hz and the complex
// response. The numerator and denominator are zero-padded to 2n points and
// transformed with an FFT; coefficient vectors longer than that are
// evaluated directly.
func Freqz(tf TransferFunction, n int, sampleRate float64) ([]float64, []complex128) {
	if n <= 0 {
		return nil, nil
	}

	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = float64(i) * sampleRate / float64(2*n)
	}

	h := make([]complex128, n)
	if max(len(tf.A), len(tf.B)) > 2*n {
		for i := range h {
			h[i] = tf.at(math.Pi * float64(i) / float64(n))
		}
		return freqs, h
	}

	num := fft.FFTReal(zeroPad(tf.B, 2*n))
	den := fft.FFTReal(zeroPad(tf.A, 2*n))
	for i := range h {
		h[i] = num[i] / den[i]
	}
	return freqs, h
}

func zeroPad(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)
	return out
}
