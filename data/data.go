// Package data holds multi-trial recordings: an ordered collection of trials,
// each a set of named fields such as a neural response matrix, a stimulus
// waveform, a sampling rate, or a trial name.
package data

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Trial is one recorded segment. Supported value types are *mat.Dense
// (time x channels), []float64 (time), float64 and string.
type Trial map[string]any

// Clone returns a shallow copy of the trial. Matrix values are shared.
func (t Trial) Clone() Trial {
	c := make(Trial, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// Data is an ordered collection of trials.
type Data struct {
	trials []Trial
}

// New creates a collection from trials. Nil trials become empty ones.
func New(trials ...Trial) *Data {
	d := &Data{trials: make([]Trial, 0, len(trials))}
	for _, t := range trials {
		d.Append(t)
	}
	return d
}

// Len returns the number of trials.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.trials)
}

// At returns trial i.
func (d *Data) At(i int) Trial {
	return d.trials[i]
}

// Append adds a trial at the end.
func (d *Data) Append(t Trial) {
	if t == nil {
		t = Trial{}
	}
	d.trials = append(d.trials, t)
}

// Fields returns the sorted union of field names across trials.
func (d *Data) Fields() []string {
	seen := make(map[string]struct{})
	for _, t := range d.trials {
		for k := range t {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Field returns the values of one field across all trials.
func (d *Data) Field(name string) ([]any, error) {
	values := make([]any, len(d.trials))
	for i, t := range d.trials {
		v, ok := t[name]
		if !ok {
			return nil, &ConfigurationError{Field: name, Reason: fmt.Sprintf("missing in trial %d", i)}
		}
		values[i] = v
	}
	return values, nil
}

// SetField stores one value per trial under name.
func (d *Data) SetField(name string, values []any) error {
	if len(values) != len(d.trials) {
		return &ConfigurationError{
			Field:  name,
			Reason: fmt.Sprintf("got %d values for %d trials", len(values), len(d.trials)),
		}
	}
	for i, v := range values {
		d.trials[i][name] = v
	}
	return nil
}

// SetMatrices is SetField for per-trial matrices.
func (d *Data) SetMatrices(name string, ms []*mat.Dense) error {
	values := make([]any, len(ms))
	for i, m := range ms {
		values[i] = m
	}
	return d.SetField(name, values)
}
