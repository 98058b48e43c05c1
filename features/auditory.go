package features

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/RyanBlaney/napkit/algorithms/common"
	"github.com/RyanBlaney/napkit/algorithms/filters"
	"github.com/RyanBlaney/napkit/algorithms/spectral"
	"github.com/RyanBlaney/napkit/logging"
	"gonum.org/v1/gonum/mat"
)

// HairCell is the inner hair cell nonlinearity.
type HairCell int

const (
	Linear HairCell = iota
	HalfWave
	HardLimiter
	Sigmoid
)

func (h HairCell) String() string {
	switch h {
	case Linear:
		return "linear"
	case HalfWave:
		return "halfwave"
	case HardLimiter:
		return "boolean"
	case Sigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("HairCell(%d)", int(h))
	}
}

// ParseHairCell accepts linear, halfwave (half-wave), boolean (hard) and
// sigmoid.
func ParseHairCell(name string) (HairCell, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "") {
	case "linear", "":
		return Linear, nil
	case "halfwave":
		return HalfWave, nil
	case "boolean", "hard", "hardlimiter":
		return HardLimiter, nil
	case "sigmoid":
		return Sigmoid, nil
	default:
		return Linear, fmt.Errorf("unknown hair cell nonlinearity %q", name)
	}
}

const (
	// numCochlearChannels filters feed lateral inhibition, which leaves one
	// channel fewer in the output.
	numCochlearChannels = 129
	baseRate            = 16000.0
	hairCellTC          = 0.5 // ms
)

// AuditoryConfig parameterizes AuditorySpectrogram.
type AuditoryConfig struct {
	// FrameLen is the output frame length in ms.
	FrameLen float64 `json:"frame_len" yaml:"frame_len" toml:"frame_len"`
	// TimeConstant of the leaky integrator in ms. Zero averages each frame.
	TimeConstant float64  `json:"tc" yaml:"tc" toml:"tc"`
	Factor       HairCell `json:"factor" yaml:"factor" toml:"factor"`
	// SigmoidScale compresses the sigmoid; small values approach a hard limiter.
	SigmoidScale float64 `json:"sigmoid_scale" yaml:"sigmoid_scale" toml:"sigmoid_scale"`
	// Shift moves every channel by octaves and scales the internal rate
	// to 16 kHz * 2^Shift.
	Shift float64 `json:"shift" yaml:"shift" toml:"shift"`
	// Workers bounds the channel worker pool. Zero picks from NumCPU.
	Workers int `json:"workers" yaml:"workers" toml:"workers"`
}

// DefaultAuditoryConfig returns 8 ms frames, an 8 ms integrator, a linear
// hair cell and no octave shift.
func DefaultAuditoryConfig() AuditoryConfig {
	return AuditoryConfig{
		FrameLen:     8,
		TimeConstant: 8,
		Factor:       Linear,
		SigmoidScale: 0.1,
	}
}

// Validate reports parameters the model cannot run with.
func (c AuditoryConfig) Validate() error {
	if c.FrameLen <= 0 {
		return fmt.Errorf("frame length must be positive, got %g ms", c.FrameLen)
	}
	if c.TimeConstant < 0 {
		return fmt.Errorf("time constant must not be negative, got %g ms", c.TimeConstant)
	}
	if c.Factor < Linear || c.Factor > Sigmoid {
		return fmt.Errorf("unknown hair cell nonlinearity %d", int(c.Factor))
	}
	if c.Factor == Sigmoid && c.SigmoidScale <= 0 {
		return fmt.Errorf("sigmoid scale must be positive, got %g", c.SigmoidScale)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.frameSamples() < 1 {
		return fmt.Errorf("frame length %g ms is shorter than one sample", c.FrameLen)
	}
	return nil
}

func (c AuditoryConfig) rate() float64 {
	return baseRate * math.Exp2(c.Shift)
}

// samplesPerMs is 16 * 2^Shift.
func (c AuditoryConfig) samplesPerMs() float64 {
	return c.rate() / 1000
}

func (c AuditoryConfig) frameSamples() int {
	return int(math.Round(c.FrameLen * c.samplesPerMs()))
}

// CenterFrequencies returns the characteristic frequencies of the cochlear
// filters, 24 per octave from 440 * 2^(-31/24 + shift) Hz.
func CenterFrequencies(shift float64) []float64 {
	cf := make([]float64, numCochlearChannels)
	for k := range cf {
		cf[k] = 440 * math.Exp2(float64(k-31)/24+shift)
	}
	return cf
}

// AuditoryResult is an auditory spectrogram.
type AuditoryResult struct {
	// Spectrogram is frames x 128.
	Spectrogram *mat.Dense
	// CenterFrequencies labels the columns of Spectrogram.
	CenterFrequencies []float64
	// FrameRate is the number of frames per second.
	FrameRate float64
}

// AuditorySpectrogram runs the early auditory model on a mono signal
// sampled at fs: cochlear bandpass filtering, hair cell transduction with
// membrane leakage, lateral inhibition between neighboring channels and
// leaky integration into frames.
//
// The signal is first resampled to 16 kHz * 2^Shift. Cochlear channels are
// filtered concurrently; the result does not depend on the worker count.
func AuditorySpectrogram(x []float64, fs float64, cfg AuditoryConfig) (*AuditoryResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", fs)
	}

	logger := logging.WithFields(logging.Fields{
		"component": "features",
		"function":  "AuditorySpectrogram",
		"factor":    cfg.Factor.String(),
	})

	rate := cfg.rate()
	signal := x
	if fs != rate {
		var err error
		signal, err = spectral.ResampleRate(x, fs, rate)
		if err != nil {
			return nil, fmt.Errorf("resample to %g Hz: %w", rate, err)
		}
	}

	frameLen := cfg.frameSamples()
	frames := (len(signal) + frameLen - 1) / frameLen
	padded := make([]float64, frames*frameLen)
	copy(padded, signal)

	cf := CenterFrequencies(cfg.Shift)
	designs := make([]filters.TransferFunction, len(cf))
	for k, f := range cf {
		tf, err := filters.Butter(2, []float64{f * math.Exp2(-1.0/8), f * math.Exp2(1.0/8)}, filters.Bandpass, rate)
		if err != nil {
			logger.Error(err, "Failed to design cochlear filter", logging.Fields{"channel": k, "cf": f})
			return nil, fmt.Errorf("channel %d (%.1f Hz): %w", k, f, err)
		}
		designs[k] = tf
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = optimalWorkerCount(len(cf))
	}

	// Cochlear filtering and hair cell stage, one job per channel
	cochlea := make([][]float64, len(cf))
	beta := math.Exp(-1 / (hairCellTC * cfg.samplesPerMs()))
	err := runPool(workers, len(cf), func(k int) error {
		y, _, err := filters.LFilter(designs[k].B, designs[k].A, padded, nil)
		if err != nil {
			return fmt.Errorf("channel %d: %w", k, err)
		}
		hairCell(y, cfg)
		if cfg.Factor != Linear {
			leaky(y, beta)
		}
		cochlea[k] = y
		return nil
	})
	if err != nil {
		logger.Error(err, "Cochlear filtering failed")
		return nil, err
	}

	// Lateral inhibition and integration; channel k pairs with k+1
	out := mat.NewDense(frames, len(cf)-1, nil)
	alpha := 0.0
	if cfg.TimeConstant > 0 {
		alpha = math.Exp(-1 / (cfg.TimeConstant * cfg.samplesPerMs()))
	}
	err = runPool(workers, len(cf)-1, func(k int) error {
		diff := make([]float64, len(padded))
		for i := range diff {
			diff[i] = cochlea[k][i] - cochlea[k+1][i]
		}
		common.HalfWaveRectify(diff)

		col := make([]float64, frames)
		if alpha > 0 {
			leaky(diff, alpha)
			for f := range col {
				col[f] = diff[(f+1)*frameLen-1]
			}
		} else {
			for f := range col {
				col[f] = common.Mean(diff[f*frameLen : (f+1)*frameLen])
			}
		}
		out.SetCol(k, col)
		return nil
	})
	if err != nil {
		logger.Error(err, "Lateral inhibition failed")
		return nil, err
	}

	logger.Debug("Computed auditory spectrogram", logging.Fields{
		"samples": len(signal),
		"frames":  frames,
		"workers": workers,
	})

	return &AuditoryResult{
		Spectrogram:       out,
		CenterFrequencies: cf[:len(cf)-1],
		FrameRate:         1000 / cfg.FrameLen,
	}, nil
}

// hairCell applies the transduction nonlinearity in place.
func hairCell(y []float64, cfg AuditoryConfig) {
	switch cfg.Factor {
	case HalfWave:
		common.HalfWaveRectify(y)
	case HardLimiter:
		for i, v := range y {
			if v > 0 {
				y[i] = 1
			} else {
				y[i] = 0
			}
		}
	case Sigmoid:
		for i, v := range y {
			y[i] = 1 / (1 + math.Exp(-v/cfg.SigmoidScale))
		}
	}
}

// leaky runs the one-pole lowpass 1 / (1 - a z^-1) in place.
func leaky(y []float64, a float64) {
	prev := 0.0
	for i, v := range y {
		prev = v + a*prev
		y[i] = prev
	}
}

// runPool calls job(0..n-1) on up to workers goroutines and returns the
// error of the lowest failing index.
func runPool(workers, n int, job func(int) error) error {
	jobs := make(chan int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for range min(workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = job(i)
			}
		}()
	}

	for i := range n {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// optimalWorkerCount sizes the pool for n independent channels.
func optimalWorkerCount(n int) int {
	numCPU := runtime.NumCPU()
	if n < 100 {
		return max(1, min(numCPU/2, n))
	}
	return max(1, min(numCPU, n))
}
