package data

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func twoTrials() *Data {
	return New(
		Trial{"resp": mat.NewDense(4, 2, nil), "dataf": 100.0, "name": "a", "aud": make([]float64, 6)},
		Trial{"resp": mat.NewDense(3, 2, nil), "dataf": 200.0, "name": "b", "aud": make([]float64, 3)},
	)
}

func TestDataFields(t *testing.T) {
	d := twoTrials()
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"aud", "dataf", "name", "resp"}, d.Fields())

	names, err := d.Field("name")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, names)

	_, err = d.Field("missing")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "missing", cfgErr.Field)

	require.Error(t, d.SetField("x", []any{1.0}))
	require.NoError(t, d.SetField("x", []any{1.0, 2.0}))
	assert.Equal(t, 2.0, d.At(1)["x"])
}

func TestResolveFieldByName(t *testing.T) {
	d := twoTrials()
	arrays, err := ResolveField(d, FieldName("resp"))
	require.NoError(t, err)
	require.Len(t, arrays, 2)
	r, _ := arrays[1].Dims()
	assert.Equal(t, 3, r)

	vec, err := ResolveField(d, FieldName("aud"))
	require.NoError(t, err)
	r, c := vec[0].Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 1, c)

	_, err = ResolveField(d, FieldName("name"))
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestResolveFieldNameWithoutData(t *testing.T) {
	_, _, err := ParseFieldArgs(nil, FieldName("resp"), Rate(100), ParseOptions{})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "resp", cfgErr.Field)

	_, _, err = ParseFieldArgs(nil, FieldArrays(mat.NewDense(2, 1, nil)), RateField("dataf"), ParseOptions{})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dataf", cfgErr.Field)
}

func TestResolveRates(t *testing.T) {
	d := twoTrials()

	rates, err := ResolveRates(d, RateField("dataf"), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200}, rates)

	rates, err = ResolveRates(nil, Rate(500), 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 500, 500}, rates)

	_, err = ResolveRates(nil, Rates(1, 2), 3)
	assert.Error(t, err)

	_, err = ResolveRates(nil, Rate(-1), 1)
	assert.Error(t, err)

	_, err = ResolveRates(d, RateField("name"), 2)
	assert.Error(t, err)

	_, err = ResolveRates(nil, RateSelector{}, 1)
	assert.Error(t, err)
}

func TestParseFieldArgsLengths(t *testing.T) {
	d := twoTrials()

	_, _, err := ParseFieldArgs(d, FieldName("resp"), RateField("dataf"), ParseOptions{})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "aud has 6 samples in trial 0, resp has 4")
	assert.Equal(t, "aud", cfgErr.Field)

	arrays, rates, err := ParseFieldArgs(d, FieldName("resp"), RateField("dataf"), ParseOptions{AllowDifferentLengths: true})
	require.NoError(t, err)
	assert.Len(t, arrays, 2)
	assert.Equal(t, []float64{100, 200}, rates)
}

func TestParseFieldArgsRawArrays(t *testing.T) {
	a := mat.NewDense(5, 3, nil)
	arrays, rates, err := ParseFieldArgs(nil, FieldArrays(a, a), Rates(10, 20), ParseOptions{})
	require.NoError(t, err)
	assert.Same(t, a, arrays[0])
	assert.Equal(t, []float64{10, 20}, rates)

	_, err = ResolveField(twoTrials(), FieldArrays(a))
	assert.Error(t, err, "array count must match the collection")

	_, err = ResolveField(nil, FieldArrays(a, nil))
	assert.Error(t, err)
}

func TestDecodeEncode(t *testing.T) {
	in := `[
	  {"name": "t1", "dataf": 100, "resp": [[1, 2], [3, 4], [5, 6]], "aud": [0.5, 0.25]},
	  {"name": "t2", "dataf": 100, "resp": [[7, 8]]}
	]`
	d, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	resp := d.At(0)["resp"].(*mat.Dense)
	r, c := resp.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 6.0, resp.At(2, 1))
	assert.Equal(t, []float64{0.5, 0.25}, d.At(0)["aud"])
	assert.Equal(t, "t2", d.At(1)["name"])

	var buf bytes.Buffer
	require.NoError(t, d.Encode(&buf))
	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, mat.Equal(resp, back.At(0)["resp"].(*mat.Dense)))
}

func TestDecodeRejectsRagged(t *testing.T) {
	_, err := Decode(strings.NewReader(`[{"resp": [[1, 2], [3]]}]`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`[{"flag": true}]`))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.json")
	d := New(Trial{"resp": mat.NewDense(2, 1, []float64{1, 2}), "dataf": 50.0})
	require.NoError(t, d.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, back.At(0)["dataf"])

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
