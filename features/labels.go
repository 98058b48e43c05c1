package features

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/RyanBlaney/napkit/logging"
	"gonum.org/v1/gonum/mat"
)

// SilenceLabel is the frame value for silence, pauses and frames no
// segment covers.
const SilenceLabel = -1

// LabelOptions controls the frame grid of label vectors.
type LabelOptions struct {
	// Fs is the label frame rate in Hz.
	Fs float64 `json:"fs" yaml:"fs" toml:"fs"`
	// Length is the number of frames. Zero derives it from the last
	// segment end.
	Length int `json:"length" yaml:"length" toml:"length"`
}

// DefaultLabelOptions labels at 100 frames per second.
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{Fs: 100}
}

// numFrames resolves the frame count for segs.
func (o LabelOptions) numFrames(segs []Segment) (int, error) {
	if o.Fs <= 0 || math.IsNaN(o.Fs) || math.IsInf(o.Fs, 0) {
		return 0, fmt.Errorf("label frame rate must be positive, got %g", o.Fs)
	}
	if o.Length < 0 {
		return 0, fmt.Errorf("label length must not be negative, got %d", o.Length)
	}
	if o.Length > 0 {
		return o.Length, nil
	}

	last := 0.0
	for _, s := range segs {
		last = math.Max(last, s.End)
	}
	// tolerate float noise such as 1.1*100 = 110.00000000000001
	return int(math.Ceil(last*o.Fs - 1e-9)), nil
}

// frameSpan maps a segment to the frames [from, to) it covers, clipped to n.
func (o LabelOptions) frameSpan(s Segment, n int) (int, int) {
	from := int(math.Round(s.Start * o.Fs))
	to := int(math.Round(s.End * o.Fs))
	return max(0, min(from, n)), max(0, min(to, n))
}

// PhonemeLabelVector assigns each frame the Phonemes index of the phone
// active in it, or SilenceLabel. A later segment overrides an earlier one
// where they overlap. Labels outside the inventory are an error.
func PhonemeLabelVector(segs []Segment, opts LabelOptions) ([]int, error) {
	n, err := opts.numFrames(segs)
	if err != nil {
		return nil, err
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = SilenceLabel
	}

	for _, s := range segs {
		if IsSilence(s.Label) {
			continue
		}
		idx, ok := PhonemeIndex(s.Label)
		if !ok {
			return nil, fmt.Errorf("unknown phoneme %q at %gs", s.Label, s.Start)
		}
		from, to := opts.frameSpan(s, n)
		for f := from; f < to; f++ {
			labels[f] = idx
		}
	}
	return labels, nil
}

// PhonemeFeatureMatrix is the multilabel form of PhonemeLabelVector: a
// frames x len(PhoneticFeatures) binary matrix with the articulatory
// features of the phone active in each frame. Silent frames are all zero.
func PhonemeFeatureMatrix(segs []Segment, opts LabelOptions) (*mat.Dense, error) {
	labels, err := PhonemeLabelVector(segs, opts)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("alignment covers no frames")
	}

	m := mat.NewDense(len(labels), len(PhoneticFeatures), nil)
	for f, idx := range labels {
		if idx == SilenceLabel {
			continue
		}
		v, _ := PhonemeFeatureVector(Phonemes[idx])
		m.SetRow(f, v)
	}
	return m, nil
}

// WordDict maps lower-cased words to integer ids. CreateWordDict numbers them 0..N-1.
type WordDict map[string]int

// Words returns the dictionary words ordered by id, ties broken
// alphabetically. Ids need not be dense.
func (d WordDict) Words() []string {
	words := slices.Collect(maps.Keys(d))
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(d[a], d[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return words
}

// CreateWordDict reads word alignment files and numbers every distinct
// non-silence word, lower-cased and sorted, from 0.
func CreateWordDict(paths ...string) (WordDict, error) {
	all := make([][]Segment, 0, len(paths))
	for _, p := range paths {
		segs, err := ReadAlignment(p)
		if err != nil {
			return nil, err
		}
		all = append(all, segs)
	}
	dict := WordDictFromSegments(all...)

	logging.Debug("Built word dictionary", logging.Fields{
		"component": "features",
		"files":     len(paths),
		"words":     len(dict),
	})
	return dict, nil
}

// WordDictFromSegments is CreateWordDict for alignments already in memory.
func WordDictFromSegments(alignments ...[]Segment) WordDict {
	seen := make(map[string]bool)
	for _, segs := range alignments {
		for _, s := range segs {
			if IsSilence(s.Label) {
				continue
			}
			seen[strings.ToLower(strings.TrimSpace(s.Label))] = true
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)

	dict := make(WordDict, len(words))
	for i, w := range words {
		dict[w] = i
	}
	return dict
}

// WordLabels holds per-frame word ids and word onsets.
type WordLabels struct {
	// IDs is the dictionary id of the word in each frame, SilenceLabel for
	// silence and words missing from the dictionary.
	IDs []int `json:"ids"`
	// Onsets is 1 on the first frame of every spoken word, 0 elsewhere.
	Onsets []int `json:"onsets"`
}

// WordLabelVector labels each frame with the id of its word. Every
// non-silence word marks an onset, including words outside dict.
func WordLabelVector(segs []Segment, dict WordDict, opts LabelOptions) (*WordLabels, error) {
	n, err := opts.numFrames(segs)
	if err != nil {
		return nil, err
	}

	out := &WordLabels{IDs: make([]int, n), Onsets: make([]int, n)}
	for i := range out.IDs {
		out.IDs[i] = SilenceLabel
	}

	for _, s := range segs {
		if IsSilence(s.Label) {
			continue
		}
		from, to := opts.frameSpan(s, n)
		if from >= to {
			continue
		}
		id, ok := dict[strings.ToLower(strings.TrimSpace(s.Label))]
		if !ok {
			id = SilenceLabel
		}
		for f := from; f < to; f++ {
			out.IDs[f] = id
		}
		out.Onsets[from] = 1
	}
	return out, nil
}
