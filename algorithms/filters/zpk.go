package filters

import (
	"math"
	"math/cmplx"
)

// zpk is a filter in zeros/poles/gain form.
type zpk struct {
	z []complex128
	p []complex128
	k float64
}

// butterPrototype returns the analog Butterworth lowpass prototype with a
// cutoff of 1 rad/s: no zeros, poles at -exp(j*pi*m/(2N)) for
// m = -N+1, -N+3, ..., N-1, unit gain.
func butterPrototype(order int) zpk {
	p := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		p = append(p, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}
	return zpk{p: p, k: 1}
}

func (f zpk) degree() int {
	return len(f.p) - len(f.z)
}

// lowpass scales the prototype cutoff to wo.
func (f zpk) lowpass(wo float64) zpk {
	w := complex(wo, 0)
	return zpk{
		z: scaleRoots(f.z, w),
		p: scaleRoots(f.p, w),
		k: f.k * math.Pow(wo, float64(f.degree())),
	}
}

// highpass maps s -> wo/s, adding zeros at the origin for the missing order.
func (f zpk) highpass(wo float64) zpk {
	w := complex(wo, 0)
	z := invertRoots(f.z, w)
	p := invertRoots(f.p, w)
	for range f.degree() {
		z = append(z, 0)
	}
	return zpk{z: z, p: p, k: f.k * real(prodNeg(f.z)/prodNeg(f.p))}
}

// bandpass maps s -> (s^2 + wo^2) / (s*bw), doubling the order.
func (f zpk) bandpass(wo, bw float64) zpk {
	half := complex(bw/2, 0)
	z := splitRoots(scaleRoots(f.z, half), wo)
	p := splitRoots(scaleRoots(f.p, half), wo)
	for range f.degree() {
		z = append(z, 0)
	}
	return zpk{z: z, p: p, k: f.k * math.Pow(bw, float64(f.degree()))}
}

// bandstop maps s -> (s*bw) / (s^2 + wo^2), doubling the order and placing
// zeros at +-j*wo for the missing order.
func (f zpk) bandstop(wo, bw float64) zpk {
	half := complex(bw/2, 0)
	z := splitRoots(invertRoots(f.z, half), wo)
	p := splitRoots(invertRoots(f.p, half), wo)
	for range f.degree() {
		z = append(z, complex(0, wo))
	}
	for range f.degree() {
		z = append(z, complex(0, -wo))
	}
	return zpk{z: z, p: p, k: f.k * real(prodNeg(f.z)/prodNeg(f.p))}
}

// bilinear maps the analog filter to the z-plane with s = 2*fs*(z-1)/(z+1).
// Zeros at infinity land on z = -1 (Nyquist).
func (f zpk) bilinear(fs float64) zpk {
	fs2 := complex(2*fs, 0)
	z := make([]complex128, 0, len(f.p))
	p := make([]complex128, len(f.p))

	num := complex(1, 0)
	for _, r := range f.z {
		z = append(z, (fs2+r)/(fs2-r))
		num *= fs2 - r
	}
	den := complex(1, 0)
	for i, r := range f.p {
		p[i] = (fs2 + r) / (fs2 - r)
		den *= fs2 - r
	}
	for range f.degree() {
		z = append(z, -1)
	}
	return zpk{z: z, p: p, k: f.k * real(num/den)}
}

// transferFunction expands zeros and poles into real polynomial coefficients.
// Complex roots of designed filters come in conjugate pairs, so the imaginary
// parts of the expanded polynomials are rounding noise and are dropped.
func (f zpk) transferFunction() TransferFunction {
	b := realPoly(f.z)
	for i := range b {
		b[i] *= f.k
	}
	return TransferFunction{B: b, A: realPoly(f.p)}
}

// realPoly returns the coefficients, highest power first, of prod(x - r).
func realPoly(roots []complex128) []float64 {
	c := make([]complex128, 1, len(roots)+1)
	c[0] = 1
	for _, r := range roots {
		c = append(c, 0)
		for i := len(c) - 1; i > 0; i-- {
			c[i] -= r * c[i-1]
		}
	}
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

func scaleRoots(roots []complex128, w complex128) []complex128 {
	out := make([]complex128, len(roots))
	for i, r := range roots {
		out[i] = r * w
	}
	return out
}

func invertRoots(roots []complex128, w complex128) []complex128 {
	out := make([]complex128, len(roots))
	for i, r := range roots {
		out[i] = w / r
	}
	return out
}

// splitRoots replaces every root r by the pair r +- sqrt(r^2 - wo^2).
func splitRoots(roots []complex128, wo float64) []complex128 {
	wo2 := complex(wo*wo, 0)
	out := make([]complex128, 0, 2*len(roots))
	for _, r := range roots {
		out = append(out, r+cmplx.Sqrt(r*r-wo2))
	}
	for _, r := range roots {
		out = append(out, r-cmplx.Sqrt(r*r-wo2))
	}
	return out
}

// prodNeg returns prod(-r), 1 for no roots.
func prodNeg(roots []complex128) complex128 {
	prod := complex(1, 0)
	for _, r := range roots {
		prod *= -r
	}
	return prod
}
