package filters

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sine(freq, fs float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

func maxAbsDiff(x, y []float64, from, to int) float64 {
	m := 0.0
	for i := from; i < to; i++ {
		m = math.Max(m, math.Abs(x[i]-y[i]))
	}
	return m
}

func TestButterKnownCoefficients(t *testing.T) {
	cases := []struct {
		name  string
		order int
		wn    []float64
		btype BandType
		fs    float64
		b, a  []float64
	}{
		{"lowpass order 2 half band", 2, []float64{250}, Lowpass, 1000,
			[]float64{0.29289321881345, 0.58578643762690, 0.29289321881345},
			[]float64{1, 0, 0.17157287525381}},
		{"highpass order 2 half band", 2, []float64{250}, Highpass, 1000,
			[]float64{0.29289321881345, -0.58578643762690, 0.29289321881345},
			[]float64{1, 0, 0.17157287525381}},
		{"lowpass order 3", 3, []float64{100}, Lowpass, 1000,
			[]float64{0.01809893300751, 0.05429679902254, 0.05429679902254, 0.01809893300751},
			[]float64{1, -1.76004188034317, 1.18289326203783, -0.27805991763455}},
		{"lowpass order 1", 1, []float64{100}, Lowpass, 1000,
			[]float64{0.24523727525279, 0.24523727525279},
			[]float64{1, -0.50952544949443}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tf, err := Butter(tc.order, tc.wn, tc.btype, tc.fs)
			require.NoError(t, err)
			require.Len(t, tf.B, len(tc.b))
			require.Len(t, tf.A, len(tc.a))
			assert.InDeltaSlice(t, tc.b, tf.B, 1e-10)
			assert.InDeltaSlice(t, tc.a, tf.A, 1e-10)
		})
	}
}

func TestButterBandEdgesAreMinus3dB(t *testing.T) {
	fs := 500.0
	for _, btype := range []BandType{Bandpass, Bandstop} {
		for _, order := range []int{1, 2, 3, 4} {
			tf, err := Butter(order, []float64{70, 150}, btype, fs)
			require.NoError(t, err)
			assert.Len(t, tf.A, 2*order+1)
			assert.Equal(t, 1.0, tf.A[0])

			for _, edge := range []float64{70, 150} {
				mag, _ := tf.Response(edge, fs)
				assert.InDelta(t, 1/math.Sqrt2, mag, 1e-9, "%v order %d at %g Hz", btype, order, edge)
			}
		}
	}

	bp, err := Butter(2, []float64{70, 150}, Bandpass, fs)
	require.NoError(t, err)
	dc, _ := bp.Response(0, fs)
	assert.InDelta(t, 0, dc, 1e-12)

	bs, err := Butter(2, []float64{70, 150}, Bandstop, fs)
	require.NoError(t, err)
	dc, _ = bs.Response(0, fs)
	assert.InDelta(t, 1, dc, 1e-9)
}

func TestButterHigherOrderSteeperRolloff(t *testing.T) {
	prev := 0.0
	for _, order := range []int{1, 2, 4, 6} {
		tf, err := Butter(order, []float64{1000}, Lowpass, 48000)
		require.NoError(t, err)
		atten := -tf.MagnitudeDB(4000, 48000)
		assert.Greater(t, atten, prev, "order %d", order)
		prev = atten
	}
}

func TestButterInvalid(t *testing.T) {
	cases := []struct {
		name  string
		order int
		wn    []float64
		btype BandType
		fs    float64
	}{
		{"above nyquist", 2, []float64{70, 150}, Bandpass, 200},
		{"at nyquist", 2, []float64{100}, Lowpass, 200},
		{"zero frequency", 2, []float64{0}, Highpass, 200},
		{"negative order", -1, []float64{10}, Lowpass, 200},
		{"zero order", 0, []float64{10}, Lowpass, 200},
		{"two freqs for lowpass", 2, []float64{10, 20}, Lowpass, 200},
		{"one freq for bandstop", 2, []float64{10}, Bandstop, 200},
		{"reversed band", 2, []float64{50, 20}, Bandpass, 200},
		{"unknown type", 2, []float64{10}, BandType(9), 200},
		{"bad sampling rate", 2, []float64{10}, Lowpass, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Butter(tc.order, tc.wn, tc.btype, tc.fs)
			var fde *FilterDesignError
			require.Error(t, err)
			assert.True(t, errors.As(err, &fde), "want FilterDesignError, got %T", err)
		})
	}
}

func TestParseBandType(t *testing.T) {
	for name, want := range map[string]BandType{
		"lowpass": Lowpass, "HighPass": Highpass, "bandpass": Bandpass, "bandstop": Bandstop, "stop": Bandstop,
	} {
		got, err := ParseBandType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, got.String())
	}

	_, err := ParseBandType("notch")
	var fde *FilterDesignError
	assert.True(t, errors.As(err, &fde))
}

func TestLFilterImpulse(t *testing.T) {
	b := []float64{0.5, 0.5}
	a := []float64{1, -0.5}
	x := []float64{1, 0, 0, 0}
	y, zf, err := LFilter(b, a, x, nil)
	require.NoError(t, err)
	// h[0]=0.5, h[n]=0.75*0.5^(n-1)
	assert.InDeltaSlice(t, []float64{0.5, 0.75, 0.375, 0.1875}, y, 1e-15)
	assert.Len(t, zf, 1)

	// unnormalized denominator
	y2, _, err := LFilter([]float64{1, 1}, []float64{2, -1}, x, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, y, y2, 1e-15)

	_, _, err = LFilter(b, a, x, []float64{1, 2})
	assert.Error(t, err)
	_, _, err = LFilter(b, []float64{0, 1}, x, nil)
	assert.Error(t, err)
}

func TestLFilterZiSteadyState(t *testing.T) {
	for _, tc := range []struct {
		wn    []float64
		btype BandType
	}{
		{[]float64{250}, Lowpass},
		{[]float64{50}, Highpass},
		{[]float64{70, 150}, Bandpass},
		{[]float64{70, 150}, Bandstop},
	} {
		tf, err := Butter(2, tc.wn, tc.btype, 1000)
		require.NoError(t, err)

		zi, err := LFilterZi(tf.B, tf.A)
		require.NoError(t, err)
		require.Len(t, zi, len(tf.A)-1)

		const c = 3.0
		step := make([]float64, 20)
		for i := range step {
			step[i] = c
		}
		y, _, err := LFilter(tf.B, tf.A, step, scaled(zi, c))
		require.NoError(t, err)

		gain := c * sum(tf.B) / sum(tf.A)
		for i, v := range y {
			assert.InDelta(t, gain, v, 1e-9, "%v sample %d", tc.btype, i)
		}
	}
}

func sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func TestFiltFiltZeroPhase(t *testing.T) {
	fs := 500.0
	tf, err := Butter(2, []float64{70, 150}, Bandpass, fs)
	require.NoError(t, err)

	pass := sine(100, fs, 1000)
	y, err := FiltFilt(tf.B, tf.A, pass)
	require.NoError(t, err)
	require.Len(t, y, len(pass))
	// |H(100 Hz)|^2 is within 0.2% of unity and there is no phase shift
	assert.Less(t, maxAbsDiff(pass, y, 100, 900), 5e-3)

	stop := sine(10, fs, 1000)
	y, err = FiltFilt(tf.B, tf.A, stop)
	require.NoError(t, err)
	assert.Less(t, maxAbsDiff(make([]float64, 1000), y, 100, 900), 1e-3)
}

func TestFiltFiltConstantThroughLowpass(t *testing.T) {
	tf, err := Butter(4, []float64{50}, Lowpass, 1000)
	require.NoError(t, err)

	x := make([]float64, 200)
	for i := range x {
		x[i] = 2.5
	}
	y, err := FiltFilt(tf.B, tf.A, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, x, y, 1e-9)
}

func TestFiltFiltTooShort(t *testing.T) {
	tf, err := Butter(2, []float64{70, 150}, Bandpass, 500)
	require.NoError(t, err)
	assert.Equal(t, 15, PadLength(tf.B, tf.A))

	_, err = FiltFilt(tf.B, tf.A, make([]float64, 15))
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = FiltFilt(tf.B, tf.A, make([]float64, 16))
	assert.NoError(t, err)
}

func TestFiltFiltColumns(t *testing.T) {
	fs := 500.0
	tf, err := Butter(2, []float64{70, 150}, Bandpass, fs)
	require.NoError(t, err)

	n := 400
	m := mat.NewDense(n, 3, nil)
	m.SetCol(0, sine(100, fs, n))
	m.SetCol(1, sine(10, fs, n))
	m.SetCol(2, sine(200, fs, n))
	orig := mat.DenseCopyOf(m)

	out, err := FiltFiltColumns(tf.B, tf.A, m)
	require.NoError(t, err)
	r, c := out.Dims()
	assert.Equal(t, n, r)
	assert.Equal(t, 3, c)
	assert.True(t, mat.Equal(orig, m), "input must not change")

	for j := range c {
		want, err := FiltFilt(tf.B, tf.A, mat.Col(nil, j, m))
		require.NoError(t, err)
		assert.Equal(t, want, mat.Col(nil, j, out))
	}
}

func TestFreqzMatchesResponse(t *testing.T) {
	fs := 1000.0
	tf, err := Butter(3, []float64{100}, Lowpass, fs)
	require.NoError(t, err)

	freqs, h := Freqz(tf, 64, fs)
	require.Len(t, freqs, 64)
	require.Len(t, h, 64)
	assert.Equal(t, 0.0, freqs[0])
	assert.InDelta(t, fs/2*63/64, freqs[63], 1e-12)

	for i, f := range freqs {
		mag, _ := tf.Response(f, fs)
		assert.InDelta(t, mag, cmplx.Abs(h[i]), 1e-9, "bin %d", i)

		direct := tf.at(2 * math.Pi * f / fs)
		assert.InDelta(t, real(direct), real(h[i]), 1e-9, "bin %d", i)
		assert.InDelta(t, imag(direct), imag(h[i]), 1e-9, "bin %d", i)
	}

	// coefficient vectors longer than 2n take the direct path
	_, short := Freqz(tf, 1, fs)
	assert.InDelta(t, 1, cmplx.Abs(short[0]), 1e-9)

	f, h := Freqz(tf, 0, fs)
	assert.Nil(t, f)
	assert.Nil(t, h)
}

func TestTransferFunctionEqual(t *testing.T) {
	a, err := Butter(2, []float64{70, 150}, Bandpass, 500)
	require.NoError(t, err)
	b, err := Butter(2, []float64{70, 150}, Bandpass, 500)
	require.NoError(t, err)
	c, err := Butter(2, []float64{70, 150}, Bandpass, 600)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
