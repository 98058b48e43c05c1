package common

import (
	"fmt"
	"math"
	"strings"
)

// NormalizationType defines normalization method
type NormalizationType int

const (
	ZScore NormalizationType = iota
	MinMax
)

func (t NormalizationType) String() string {
	switch t {
	case ZScore:
		return "zscore"
	case MinMax:
		return "minmax"
	default:
		return fmt.Sprintf("NormalizationType(%d)", int(t))
	}
}

// ParseNormalizationType maps "zscore" (or "z-score") and "minmax" (or
// "min-max") to a method.
func ParseNormalizationType(name string) (NormalizationType, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "") {
	case "zscore", "":
		return ZScore, nil
	case "minmax":
		return MinMax, nil
	default:
		return ZScore, fmt.Errorf("unknown normalization method %q", name)
	}
}

// Normalizer scales signals with a fixed method
type Normalizer struct {
	method NormalizationType
}

// NewNormalizer creates a new normalizer
func NewNormalizer(method NormalizationType) *Normalizer {
	return &Normalizer{
		method: method,
	}
}

// Method reports the configured normalization method
func (n *Normalizer) Method() NormalizationType {
	return n.method
}

// Normalize returns a scaled copy of signal. The input is not modified.
func (n *Normalizer) Normalize(signal []float64) []float64 {
	switch n.method {
	case MinMax:
		return n.minMaxNormalize(signal)
	default:
		return n.zScoreNormalize(signal)
	}
}

// zScoreNormalize maps to zero mean and unit sample standard deviation.
// A constant signal only has its mean removed.
func (n *Normalizer) zScoreNormalize(signal []float64) []float64 {
	normalized := make([]float64, len(signal))
	if len(signal) == 0 {
		return normalized
	}

	mean := Mean(signal)
	std := StandardDeviation(signal)
	if std < 1e-10 {
		std = 1
	}

	for i, val := range signal {
		normalized[i] = (val - mean) / std
	}
	return normalized
}

// minMaxNormalize maps to [0, 1]. A constant signal maps to zeros.
func (n *Normalizer) minMaxNormalize(signal []float64) []float64 {
	normalized := make([]float64, len(signal))
	lo, hi := Range(signal)
	if math.Abs(hi-lo) < 1e-10 {
		return normalized
	}

	for i, val := range signal {
		normalized[i] = (val - lo) / (hi - lo)
	}
	return normalized
}
