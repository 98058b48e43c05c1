package filters

import (
	"fmt"
	"math"
	"strings"
)

// BandType selects the response of a designed filter.
type BandType int

const (
	Lowpass BandType = iota
	Highpass
	Bandpass
	Bandstop
)

func (b BandType) String() string {
	switch b {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Bandstop:
		return "bandstop"
	default:
		return fmt.Sprintf("BandType(%d)", int(b))
	}
}

// criticalCount is the number of critical frequencies the band type takes.
func (b BandType) criticalCount() int {
	if b == Bandpass || b == Bandstop {
		return 2
	}
	return 1
}

// ParseBandType accepts "lowpass", "highpass", "bandpass" and "bandstop"
// (case-insensitive) and the short forms "low", "high", "band", "stop".
func ParseBandType(name string) (BandType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lowpass", "low", "lp":
		return Lowpass, nil
	case "highpass", "high", "hp":
		return Highpass, nil
	case "bandpass", "band", "bp", "pass":
		return Bandpass, nil
	case "bandstop", "stop", "bs":
		return Bandstop, nil
	default:
		return 0, &FilterDesignError{Reason: fmt.Sprintf("unknown filter type %q, want one of lowpass, highpass, bandpass, bandstop", name)}
	}
}

// TransferFunction holds the coefficients of a rational transfer function
//
//	H(z) = (B[0] + B[1]z^-1 + ... + B[M]z^-M) / (A[0] + A[1]z^-1 + ... + A[N]z^-N)
//
// with A[0] == 1 for designed filters.
type TransferFunction struct {
	B []float64 `json:"b"`
	A []float64 `json:"a"`
}

// Equal reports whether both coefficient vectors match exactly.
func (tf TransferFunction) Equal(other TransferFunction) bool {
	return equalSlices(tf.B, other.B) && equalSlices(tf.A, other.A)
}

func equalSlices(x, y []float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Butter designs an Nth-order digital Butterworth filter and returns its
// transfer function coefficients.
//
// Parameters:
//   - order: filter order N (>= 1). Band filters have 2N poles.
//   - wn: critical frequencies in Hz; one value for lowpass/highpass, the
//     lower and upper band edge for bandpass/bandstop. At every critical
//     frequency the magnitude response is 1/sqrt(2) (-3 dB).
//   - fs: sampling rate in Hz; every critical frequency must lie in (0, fs/2).
//
// The design follows the classic analog-prototype route:
//  1. Analog lowpass prototype: N poles on the unit circle in the left half plane.
//  2. Pre-warp the critical frequencies so the bilinear transform maps them exactly.
//  3. Frequency transform to the requested band type.
//  4. Bilinear transform to the z-plane.
//  5. Expand zeros and poles into polynomial coefficients.
//
// References:
//   - A.V. Oppenheim, R.W. Schafer, "Discrete-Time Signal Processing",
//     3rd Edition, Section 7.3
//   - S. Butterworth, "On the Theory of Filter Amplifiers", Wireless Engineer, 1930
func Butter(order int, wn []float64, btype BandType, fs float64) (TransferFunction, error) {
	if order < 1 {
		return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("filter order must be a positive integer, got %d", order)}
	}
	if btype < Lowpass || btype > Bandstop {
		return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("unknown filter type %v", btype)}
	}
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("sampling rate must be positive, got %g", fs)}
	}
	if len(wn) != btype.criticalCount() {
		if btype.criticalCount() == 1 {
			return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("%v filter takes a single critical frequency, got %d", btype, len(wn))}
		}
		return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("%v filter takes start and stop frequencies, got %d", btype, len(wn))}
	}

	nyquist := fs / 2
	warped := make([]float64, len(wn))
	for i, w := range wn {
		if !(w > 0 && w < nyquist) {
			return TransferFunction{}, &FilterDesignError{
				Reason: fmt.Sprintf("critical frequencies must satisfy 0 < Wn < fs/2 (fs=%g -> fs/2=%g), got %g", fs, nyquist, w),
			}
		}
		// normalized to Nyquist, then pre-warped for a bilinear transform at fs=2
		warped[i] = 4 * math.Tan(math.Pi*(w/nyquist)/2)
	}
	if len(wn) == 2 && wn[0] >= wn[1] {
		return TransferFunction{}, &FilterDesignError{Reason: fmt.Sprintf("Wn[0] must be less than Wn[1], got %v", wn)}
	}

	proto := butterPrototype(order)

	var analog zpk
	switch btype {
	case Lowpass:
		analog = proto.lowpass(warped[0])
	case Highpass:
		analog = proto.highpass(warped[0])
	case Bandpass:
		analog = proto.bandpass(math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	case Bandstop:
		analog = proto.bandstop(math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	}

	return analog.bilinear(2).transferFunction(), nil
}
