package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/features"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	return rootCmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "trials.json", `[{"resp": [[1, 10], [2, 30], [3, 50]], "dataf": 500}]`)
	out := filepath.Join(dir, "out.json")

	require.NoError(t, execute(t, "normalize", "--in", in, "--out", out, "--method", "minmax"))

	d, err := data.Load(out)
	require.NoError(t, err)
	ms, err := data.ResolveField(d, data.FieldName("resp"))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, ms[0]), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, mat.Col(nil, 1, ms[0]), 1e-12)
}

func TestFilterCommand(t *testing.T) {
	dir := t.TempDir()
	rows := make([][]float64, 100)
	for i := range rows {
		rows[i] = []float64{float64(i % 7), float64(i % 3)}
	}
	raw, err := json.Marshal([]map[string]any{{"resp": rows, "dataf": 500}})
	require.NoError(t, err)
	in := writeFile(t, dir, "trials.json", string(raw))
	out := filepath.Join(dir, "out.json")
	filt := filepath.Join(dir, "filters.json")

	require.NoError(t, execute(t, "filter", "--in", in, "--out", out, "--output-field", "resp_filt", "--filters", filt))

	d, err := data.Load(out)
	require.NoError(t, err)
	ms, err := data.ResolveField(d, data.FieldName("resp_filt"))
	require.NoError(t, err)
	r, c := ms[0].Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 2, c)

	raw, err = os.ReadFile(filt)
	require.NoError(t, err)
	var tfs []struct{ B, A []float64 }
	require.NoError(t, json.Unmarshal(raw, &tfs))
	require.Len(t, tfs, 1)
	assert.Len(t, tfs[0].B, 5)
	assert.Len(t, tfs[0].A, 5)
}

func TestLabelsCommand(t *testing.T) {
	dir := t.TempDir()
	phn := writeFile(t, dir, "a.phn", "0.0 0.1 sil\n0.1 0.2 AH0\n")
	wrd := writeFile(t, dir, "a.wrd", "0.0 0.1 sil\n0.1 0.2 a\n")
	out := filepath.Join(dir, "labels.json")

	require.NoError(t, execute(t, "labels", "--phn", phn, "--wrd", wrd, "--fs", "100", "--out", out))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var got labelsOutput
	require.NoError(t, json.Unmarshal(raw, &got))

	ah, ok := features.PhonemeIndex("AH0")
	require.True(t, ok)
	require.Len(t, got.Phonemes, 20)
	assert.Equal(t, features.SilenceLabel, got.Phonemes[0])
	assert.Equal(t, ah, got.Phonemes[15])
	assert.Len(t, got.Features, 20)

	require.NotNil(t, got.Words)
	assert.Equal(t, 1, got.Words.Onsets[10])
	assert.Equal(t, got.Dictionary["a"], got.Words.IDs[12])
}

func TestUnknownLogLevel(t *testing.T) {
	rootCmd.SetArgs([]string{"--log-level", "chatty", "version"})
	assert.Error(t, rootCmd.Execute())
	logLevel = ""
}
