package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/r9y9/gossp/stft"
	"gonum.org/v1/gonum/mat"
)

// SpectrogramResult is a magnitude short-time Fourier transform.
type SpectrogramResult struct {
	Magnitude   *mat.Dense // frames x (FrameLen/2 + 1)
	Frequencies []float64  // Hz, one per column
	FrameShift  int
	FrameLen    int
	SampleRate  float64
}

// Spectrogram computes the magnitude STFT of x with a Hann window of
// frameLen samples advanced by frameShift samples. Only non-negative
// frequencies are kept.
func Spectrogram(x []float64, frameShift, frameLen int, sampleRate float64) (*SpectrogramResult, error) {
	if frameShift <= 0 || frameLen <= 0 {
		return nil, fmt.Errorf("frame shift and length must be positive, got %d and %d", frameShift, frameLen)
	}
	if len(x) < frameLen {
		return nil, fmt.Errorf("signal of %d samples is shorter than one frame (%d)", len(x), frameLen)
	}

	s := stft.New(frameShift, frameLen)
	frames := s.STFT(x)
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames produced")
	}

	bins := frameLen/2 + 1
	mag := mat.NewDense(len(frames), bins, nil)
	for i, frame := range frames {
		for k := 0; k < bins && k < len(frame); k++ {
			mag.Set(i, k, cmplx.Abs(frame[k]))
		}
	}

	freqs := make([]float64, bins)
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(frameLen)
	}

	return &SpectrogramResult{
		Magnitude:   mag,
		Frequencies: freqs,
		FrameShift:  frameShift,
		FrameLen:    frameLen,
		SampleRate:  sampleRate,
	}, nil
}
