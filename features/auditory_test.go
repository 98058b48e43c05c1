package features

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func tone(freq, fs float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

// peakChannel averages frames from skip on and returns the loudest column.
func peakChannel(m *mat.Dense, skip int) int {
	r, c := m.Dims()
	avg := make([]float64, c)
	for j := range c {
		avg[j] = floats.Sum(mat.Col(nil, j, m)[skip:]) / float64(r-skip)
	}
	return floats.MaxIdx(avg)
}

func TestCenterFrequencies(t *testing.T) {
	cf := CenterFrequencies(0)
	require.Len(t, cf, 129)
	assert.InDelta(t, 440, cf[31], 1e-9)
	assert.InDelta(t, 880, cf[55], 1e-9)

	up := CenterFrequencies(1)
	assert.InDelta(t, 2*cf[10], up[10], 1e-9)
}

func TestAuditorySpectrogramShape(t *testing.T) {
	res, err := AuditorySpectrogram(tone(1000, 16000, 3200), 16000, DefaultAuditoryConfig())
	require.NoError(t, err)

	r, c := res.Spectrogram.Dims()
	assert.Equal(t, 25, r) // 200 ms in 8 ms frames
	assert.Equal(t, 128, c)
	assert.Len(t, res.CenterFrequencies, 128)
	assert.Equal(t, 125.0, res.FrameRate)
	assert.GreaterOrEqual(t, mat.Min(res.Spectrogram), 0.0)
}

func TestAuditorySpectrogramTonotopy(t *testing.T) {
	for _, f := range []float64{500, 1000, 3000} {
		res, err := AuditorySpectrogram(tone(f, 16000, 3200), 16000, DefaultAuditoryConfig())
		require.NoError(t, err)

		peak := res.CenterFrequencies[peakChannel(res.Spectrogram, 5)]
		assert.GreaterOrEqual(t, peak, f*math.Exp2(-0.25), "tone %g Hz", f)
		assert.LessOrEqual(t, peak, f*math.Exp2(0.125), "tone %g Hz", f)
	}
}

func TestAuditorySpectrogramWorkerCountInvariant(t *testing.T) {
	x := tone(700, 16000, 1600)
	cfg := DefaultAuditoryConfig()

	cfg.Workers = 1
	one, err := AuditorySpectrogram(x, 16000, cfg)
	require.NoError(t, err)

	cfg.Workers = 7
	many, err := AuditorySpectrogram(x, 16000, cfg)
	require.NoError(t, err)

	assert.True(t, mat.Equal(one.Spectrogram, many.Spectrogram))
}

func TestAuditorySpectrogramResamplesInput(t *testing.T) {
	res, err := AuditorySpectrogram(tone(1000, 8000, 1600), 8000, DefaultAuditoryConfig())
	require.NoError(t, err)
	r, _ := res.Spectrogram.Dims()
	assert.Equal(t, 25, r)
}

func TestAuditorySpectrogramNonlinearities(t *testing.T) {
	x := tone(1000, 16000, 1600)
	for _, factor := range []HairCell{HalfWave, HardLimiter, Sigmoid} {
		cfg := DefaultAuditoryConfig()
		cfg.Factor = factor
		res, err := AuditorySpectrogram(x, 16000, cfg)
		require.NoError(t, err, factor.String())
		assert.GreaterOrEqual(t, mat.Min(res.Spectrogram), 0.0)
		assert.Greater(t, mat.Max(res.Spectrogram), 0.0, factor.String())
	}

	cfg := DefaultAuditoryConfig()
	cfg.TimeConstant = 0
	res, err := AuditorySpectrogram(x, 16000, cfg)
	require.NoError(t, err)
	r, _ := res.Spectrogram.Dims()
	assert.Equal(t, 13, r)
}

func TestAuditoryConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultAuditoryConfig().Validate())

	for name, mutate := range map[string]func(*AuditoryConfig){
		"frame":   func(c *AuditoryConfig) { c.FrameLen = 0 },
		"tc":      func(c *AuditoryConfig) { c.TimeConstant = -1 },
		"factor":  func(c *AuditoryConfig) { c.Factor = HairCell(8) },
		"sigmoid": func(c *AuditoryConfig) { c.Factor = Sigmoid; c.SigmoidScale = 0 },
		"workers": func(c *AuditoryConfig) { c.Workers = -2 },
		"tiny":    func(c *AuditoryConfig) { c.FrameLen = 0.01 },
	} {
		cfg := DefaultAuditoryConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	_, err := AuditorySpectrogram(nil, 16000, DefaultAuditoryConfig())
	assert.Error(t, err)
	_, err = AuditorySpectrogram([]float64{1}, 0, DefaultAuditoryConfig())
	assert.Error(t, err)
}

func TestParseHairCell(t *testing.T) {
	for name, want := range map[string]HairCell{
		"linear": Linear, "half-wave": HalfWave, "boolean": HardLimiter, "Sigmoid": Sigmoid,
	} {
		got, err := ParseHairCell(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseHairCell("cubic")
	assert.Error(t, err)
}

func TestRunPoolReturnsLowestFailure(t *testing.T) {
	for _, workers := range []int{1, 3, 64} {
		var calls atomic.Int32
		err := runPool(workers, 10, func(i int) error {
			calls.Add(1)
			if i == 4 || i == 7 {
				return fmt.Errorf("job %d", i)
			}
			return nil
		})
		assert.EqualError(t, err, "job 4", "%d workers", workers)
		assert.Equal(t, int32(10), calls.Load(), "every job runs")
	}

	assert.NoError(t, runPool(4, 0, func(int) error { return errors.New("never called") }))
}
