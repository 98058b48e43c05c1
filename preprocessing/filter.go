// Package preprocessing applies per-trial signal conditioning to trial
// collections: zero-phase Butterworth filtering and channel normalization.
package preprocessing

import (
	"fmt"

	"github.com/RyanBlaney/napkit/algorithms/filters"
	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/logging"
	"gonum.org/v1/gonum/mat"
)

// ButterConfig holds the Butterworth design parameters shared by all trials
// of one FilterButter call.
type ButterConfig struct {
	BType filters.BandType `json:"btype"`
	// Wn holds one critical frequency (lowpass, highpass) or a
	// [low, high] pair (bandpass, bandstop), in Hz.
	Wn            []float64         `json:"wn"`
	Fs            data.RateSelector `json:"-"`
	Order         int               `json:"order"`
	ReturnFilters bool              `json:"return_filters"`
}

// DefaultButterConfig returns a second-order 70-150 Hz bandpass that reads
// each trial's sampling rate from the "dataf" field.
func DefaultButterConfig() ButterConfig {
	return ButterConfig{
		BType: filters.Bandpass,
		Wn:    []float64{70, 150},
		Fs:    data.RateField("dataf"),
		Order: 2,
	}
}

// DefaultField is the field filtered when the caller names none.
const DefaultField = "resp"

// ButterResult is the output of FilterButter. Filtered has one array per
// trial, shaped like its input. Filters is nil unless requested.
type ButterResult struct {
	Filtered []*mat.Dense
	Filters  []filters.TransferFunction
}

// FilterButter designs a Butterworth filter for every trial at that trial's
// sampling rate and applies it forward and backward along the time axis of
// every channel. Trials are processed in order and the first failure aborts
// the call. Inputs are never modified.
//
// Selector problems are reported as *data.ConfigurationError before any
// filtering. Design problems are *filters.FilterDesignError and too-short
// trials wrap filters.ErrSignalTooShort; both are wrapped with the trial
// index.
func FilterButter(d *data.Data, field data.FieldSelector, cfg ButterConfig) (*ButterResult, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "preprocessing",
		"function":  "FilterButter",
		"field":     field.String(),
		"btype":     cfg.BType.String(),
	})

	arrays, rates, err := data.ParseFieldArgs(d, field, cfg.Fs, data.ParseOptions{AllowDifferentLengths: true})
	if err != nil {
		logger.Error(err, "Failed to resolve filter inputs")
		return nil, err
	}

	result := &ButterResult{Filtered: make([]*mat.Dense, len(arrays))}
	if cfg.ReturnFilters {
		result.Filters = make([]filters.TransferFunction, len(arrays))
	}

	for i, x := range arrays {
		tf, err := filters.Butter(cfg.Order, cfg.Wn, cfg.BType, rates[i])
		if err != nil {
			logger.Error(err, "Failed to design filter", logging.Fields{"trial": i, "fs": rates[i]})
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}

		y, err := filters.FiltFiltColumns(tf.B, tf.A, x)
		if err != nil {
			logger.Error(err, "Failed to apply filter", logging.Fields{"trial": i})
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}

		result.Filtered[i] = y
		if cfg.ReturnFilters {
			result.Filters[i] = tf
		}

		r, c := x.Dims()
		logger.Debug("Filtered trial", logging.Fields{"trial": i, "fs": rates[i], "samples": r, "channels": c})
	}

	return result, nil
}

// FilterButterField filters the named field of d and stores the result under
// out, which may equal field to replace it.
func FilterButterField(d *data.Data, field, out string, cfg ButterConfig) (*ButterResult, error) {
	res, err := FilterButter(d, data.FieldName(field), cfg)
	if err != nil {
		return nil, err
	}
	if err := d.SetMatrices(out, res.Filtered); err != nil {
		return nil, err
	}
	return res, nil
}
