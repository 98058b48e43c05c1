package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ParseOptions controls selector resolution.
type ParseOptions struct {
	// AllowDifferentLengths tolerates array fields of a trial whose number of
	// time samples differs from the selected field.
	AllowDifferentLengths bool
}

// ParseFieldArgs resolves a field selector and a rate selector into concrete
// per-trial arrays and a per-trial rate list of the same length. d may be nil
// when both selectors carry their values directly.
func ParseFieldArgs(d *Data, field FieldSelector, fs RateSelector, opts ParseOptions) ([]*mat.Dense, []float64, error) {
	arrays, err := ResolveField(d, field)
	if err != nil {
		return nil, nil, err
	}

	if !opts.AllowDifferentLengths {
		if err := checkLengths(d, field); err != nil {
			return nil, nil, err
		}
	}

	rates, err := ResolveRates(d, fs, len(arrays))
	if err != nil {
		return nil, nil, err
	}
	return arrays, rates, nil
}

// ResolveField returns one matrix per trial for the selector.
func ResolveField(d *Data, sel FieldSelector) ([]*mat.Dense, error) {
	name, byName := sel.Name()
	if !byName {
		for i, a := range sel.arrays {
			if a == nil {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("array for trial %d is nil", i)}
			}
		}
		if d != nil && d.Len() != len(sel.arrays) {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("got %d arrays for %d trials", len(sel.arrays), d.Len()),
			}
		}
		return sel.arrays, nil
	}

	if d == nil {
		return nil, &ConfigurationError{Field: name, Reason: "a field name needs a trial collection to resolve against"}
	}

	values, err := d.Field(name)
	if err != nil {
		return nil, err
	}

	arrays := make([]*mat.Dense, len(values))
	for i, v := range values {
		m, err := AsMatrix(v)
		if err != nil {
			return nil, &ConfigurationError{Field: name, Reason: fmt.Sprintf("trial %d: %v", i, err)}
		}
		arrays[i] = m
	}
	return arrays, nil
}

// ResolveRates returns exactly n sampling rates for the selector, broadcasting
// a shared rate to every trial.
func ResolveRates(d *Data, sel RateSelector, n int) ([]float64, error) {
	var rates []float64

	switch sel.kind {
	case rateScalar:
		rates = make([]float64, n)
		for i := range rates {
			rates[i] = sel.rates[0]
		}

	case rateList:
		if len(sel.rates) != n {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("got %d sampling rates for %d trials", len(sel.rates), n)}
		}
		rates = append([]float64(nil), sel.rates...)

	case rateField:
		if d == nil {
			return nil, &ConfigurationError{Field: sel.name, Reason: "a field name needs a trial collection to resolve against"}
		}
		if d.Len() != n {
			return nil, &ConfigurationError{Field: sel.name, Reason: fmt.Sprintf("collection has %d trials, field data has %d", d.Len(), n)}
		}
		values, err := d.Field(sel.name)
		if err != nil {
			return nil, err
		}
		rates = make([]float64, n)
		for i, v := range values {
			fs, ok := asScalar(v)
			if !ok {
				return nil, &ConfigurationError{Field: sel.name, Reason: fmt.Sprintf("trial %d: sampling rate must be a number, got %T", i, v)}
			}
			rates[i] = fs
		}

	default:
		return nil, &ConfigurationError{Reason: "no sampling rate given"}
	}

	for i, fs := range rates {
		if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
			return nil, &ConfigurationError{Field: sel.name, Reason: fmt.Sprintf("trial %d: invalid sampling rate %g", i, fs)}
		}
	}
	return rates, nil
}

// AsMatrix converts a supported field value to a time x channels matrix.
// Vectors become single-column matrices (copied).
func AsMatrix(v any) (*mat.Dense, error) {
	switch x := v.(type) {
	case *mat.Dense:
		if x == nil {
			return nil, fmt.Errorf("nil matrix")
		}
		return x, nil
	case []float64:
		if len(x) == 0 {
			return nil, fmt.Errorf("empty vector")
		}
		return mat.NewDense(len(x), 1, append([]float64(nil), x...)), nil
	case mat.Matrix:
		return mat.DenseCopyOf(x), nil
	default:
		return nil, fmt.Errorf("expected an array, got %T", v)
	}
}

func asScalar(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func rows(v any) (int, bool) {
	switch x := v.(type) {
	case *mat.Dense:
		r, _ := x.Dims()
		return r, true
	case []float64:
		return len(x), true
	default:
		return 0, false
	}
}

// checkLengths requires every array field of a trial to match the time
// length of the selected field.
func checkLengths(d *Data, field FieldSelector) error {
	name, byName := field.Name()
	if d == nil || !byName {
		return nil
	}
	for i, t := range d.trials {
		want, _ := rows(t[name])
		for other, v := range t {
			if other == name {
				continue
			}
			if n, ok := rows(v); ok && n != want {
				return &ConfigurationError{
					Field:  other,
					Reason: fmt.Sprintf("trial %d has %d samples, %q has %d", i, n, name, want),
				}
			}
		}
	}
	return nil
}
