package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Load reads a collection from a JSON file holding an array of trial objects.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trial file")
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return d, nil
}

// Decode reads a JSON array of trial objects. Nested numeric arrays become
// *mat.Dense (rows are time samples), flat numeric arrays []float64.
func Decode(r io.Reader) (*Data, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse json")
	}

	d := New()
	for i, obj := range raw {
		t := make(Trial, len(obj))
		for name, v := range obj {
			value, err := convertJSON(v)
			if err != nil {
				return nil, errors.Wrapf(err, "trial %d field %q", i, name)
			}
			t[name] = value
		}
		d.Append(t)
	}
	return d, nil
}

// Save writes the collection as JSON to path.
func (d *Data) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create trial file")
	}
	if err := d.Encode(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

// Encode writes the collection as a JSON array of trial objects.
func (d *Data) Encode(w io.Writer) error {
	out := make([]map[string]any, len(d.trials))
	for i, t := range d.trials {
		obj := make(map[string]any, len(t))
		for name, v := range t {
			if m, ok := v.(*mat.Dense); ok {
				obj[name] = MatrixRows(m)
				continue
			}
			obj[name] = v
		}
		out[i] = obj
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// MatrixRows copies a matrix into row slices.
func MatrixRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range r {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return rows
}

func convertJSON(v any) (any, error) {
	switch x := v.(type) {
	case float64, string:
		return x, nil
	case []any:
		return convertArray(x)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func convertArray(items []any) (any, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("empty array")
	}

	if _, nested := items[0].([]any); !nested {
		vec := make([]float64, len(items))
		for i, it := range items {
			f, ok := it.(float64)
			if !ok {
				return nil, fmt.Errorf("element %d: expected number, got %T", i, it)
			}
			vec[i] = f
		}
		return vec, nil
	}

	cols := len(items[0].([]any))
	if cols == 0 {
		return nil, fmt.Errorf("row 0 is empty")
	}
	values := make([]float64, 0, len(items)*cols)
	for i, it := range items {
		row, ok := it.([]any)
		if !ok {
			return nil, fmt.Errorf("row %d: expected array, got %T", i, it)
		}
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, cell := range row {
			f, ok := cell.(float64)
			if !ok {
				return nil, fmt.Errorf("row %d column %d: expected number, got %T", i, j, cell)
			}
			values = append(values, f)
		}
	}
	return mat.NewDense(len(items), cols, values), nil
}
