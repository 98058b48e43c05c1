package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/features"
	"github.com/RyanBlaney/napkit/logging"
)

var labelsOpts struct {
	phn, wrd, out string
	dict          []string
	fs            float64
	length        int
	textgrid      string
}

type labelsOutput struct {
	Fs         float64              `json:"fs"`
	Phonemes   []int                `json:"phonemes,omitempty"`
	Features   [][]float64          `json:"features,omitempty"`
	Words      *features.WordLabels `json:"words,omitempty"`
	Dictionary features.WordDict    `json:"dictionary,omitempty"`
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Build frame-level labels from phoneme and word alignments",
	Long: `Converts time aligned phonemes (.phn) and words (.wrd) into one label
per frame at --fs frames per second. Phonemes give both class indices and
phonetic feature vectors. Word ids come from a dictionary built over the
--dict alignments, or over --wrd alone when none are given.

--textgrid reads both tiers from an aligner TextGrid instead.`,
	RunE: runLabels,
}

func init() {
	f := labelsCmd.Flags()
	f.StringVar(&labelsOpts.phn, "phn", "", "phoneme alignment file")
	f.StringVar(&labelsOpts.wrd, "wrd", "", "word alignment file")
	f.StringVar(&labelsOpts.textgrid, "textgrid", "", "TextGrid with phones and words tiers")
	f.StringSliceVar(&labelsOpts.dict, "dict", nil, "word alignments defining the dictionary")
	f.Float64Var(&labelsOpts.fs, "fs", 0, "label frame rate in Hz")
	f.IntVar(&labelsOpts.length, "length", 0, "number of frames (default: cover the alignment)")
	f.StringVar(&labelsOpts.out, "out", "-", "output JSON file")
	rootCmd.AddCommand(labelsCmd)
}

func runLabels(cmd *cobra.Command, args []string) error {
	opts := cfg.Labels.Options()
	if cmd.Flags().Changed("fs") {
		opts.Fs = labelsOpts.fs
	}
	if cmd.Flags().Changed("length") {
		opts.Length = labelsOpts.length
	}

	phones, words, err := readLabelSources()
	if err != nil {
		return err
	}
	if phones == nil && words == nil {
		return fmt.Errorf("one of --phn, --wrd or --textgrid is required")
	}

	out := labelsOutput{Fs: opts.Fs}
	if phones != nil {
		if out.Phonemes, err = features.PhonemeLabelVector(phones, opts); err != nil {
			return err
		}
		m, err := features.PhonemeFeatureMatrix(phones, opts)
		if err != nil {
			return err
		}
		out.Features = data.MatrixRows(m)
	}

	if words != nil {
		dict := features.WordDictFromSegments(words)
		if len(labelsOpts.dict) > 0 {
			if dict, err = features.CreateWordDict(labelsOpts.dict...); err != nil {
				return err
			}
		}
		if out.Words, err = features.WordLabelVector(words, dict, opts); err != nil {
			return err
		}
		out.Dictionary = dict
	}

	logging.Debug("Built labels", logging.Fields{
		"phoneme_frames": len(out.Phonemes),
		"words":          len(out.Dictionary),
	})
	return writeJSON(labelsOpts.out, out)
}

func readLabelSources() (phones, words []features.Segment, err error) {
	if labelsOpts.textgrid != "" {
		tg, err := features.ReadTextGrid(labelsOpts.textgrid)
		if err != nil {
			return nil, nil, err
		}
		if tier, ok := tg.Tier("phones"); ok {
			phones = tier.Intervals
		}
		if tier, ok := tg.Tier("words"); ok {
			words = tier.Intervals
		}
		return phones, words, nil
	}

	if labelsOpts.phn != "" {
		if phones, err = features.ReadAlignment(labelsOpts.phn); err != nil {
			return nil, nil, err
		}
	}
	if labelsOpts.wrd != "" {
		if words, err = features.ReadAlignment(labelsOpts.wrd); err != nil {
			return nil, nil, err
		}
	}
	return phones, words, nil
}
