package data

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FieldSelector picks per-trial arrays either by field name, resolved against
// a collection, or as the arrays themselves.
type FieldSelector struct {
	name   string
	arrays []*mat.Dense
	byName bool
}

// FieldName selects the named field of a collection.
func FieldName(name string) FieldSelector {
	return FieldSelector{name: name, byName: true}
}

// FieldArrays passes one time x channels array per trial directly.
func FieldArrays(arrays ...*mat.Dense) FieldSelector {
	return FieldSelector{arrays: arrays}
}

// Name returns the field name and whether the selector is a name.
func (s FieldSelector) Name() (string, bool) {
	return s.name, s.byName
}

func (s FieldSelector) String() string {
	if s.byName {
		return s.name
	}
	return fmt.Sprintf("<%d arrays>", len(s.arrays))
}

type rateKind int

const (
	rateUnset rateKind = iota
	rateField
	rateScalar
	rateList
)

// RateSelector picks the sampling rate of each trial: a field name, one rate
// shared by all trials, or one rate per trial.
type RateSelector struct {
	kind  rateKind
	name  string
	rates []float64
}

// RateField reads each trial's rate from the named field.
func RateField(name string) RateSelector {
	return RateSelector{kind: rateField, name: name}
}

// Rate shares one sampling rate across all trials.
func Rate(fs float64) RateSelector {
	return RateSelector{kind: rateScalar, rates: []float64{fs}}
}

// Rates gives one sampling rate per trial, in trial order.
func Rates(fs ...float64) RateSelector {
	return RateSelector{kind: rateList, rates: append([]float64(nil), fs...)}
}

func (s RateSelector) String() string {
	switch s.kind {
	case rateField:
		return s.name
	case rateScalar:
		return fmt.Sprintf("%g", s.rates[0])
	case rateList:
		return fmt.Sprintf("%v", s.rates)
	default:
		return "<unset>"
	}
}
