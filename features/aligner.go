package features

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/RyanBlaney/napkit/logging"
	"github.com/pkg/errors"
)

// AlignerConfig configures the external forced aligner. The defaults drive
// the Montreal Forced Aligner command line.
type AlignerConfig struct {
	Command       string        `json:"command" yaml:"command" toml:"command"`
	Dictionary    string        `json:"dictionary" yaml:"dictionary" toml:"dictionary"`
	AcousticModel string        `json:"acoustic_model" yaml:"acoustic_model" toml:"acoustic_model"`
	OutputDir     string        `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	TempDir       string        `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir"` // empty uses os.TempDir
	Timeout       time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	ExtraArgs     []string      `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
}

// DefaultAlignerConfig returns the MFA English ARPABET setup.
func DefaultAlignerConfig() AlignerConfig {
	return AlignerConfig{
		Command:       "mfa",
		Dictionary:    "english_us_arpa",
		AcousticModel: "english_us_arpa",
		OutputDir:     "aligned",
		Timeout:       30 * time.Minute,
	}
}

// audioExtensions are the corpus formats staged for alignment.
var audioExtensions = []string{".wav", ".flac"}

// Aligner runs a forced aligner over a directory of recordings and their
// transcripts and converts its TextGrid output to alignment files.
type Aligner struct {
	config AlignerConfig
	logger logging.Logger
}

// AlignmentResult is the alignment produced for one recording.
type AlignmentResult struct {
	Name        string    `json:"name"`
	PhonemeFile string    `json:"phoneme_file"`
	WordFile    string    `json:"word_file"`
	Phonemes    []Segment `json:"phonemes"`
	Words       []Segment `json:"words"`
}

// NewAligner creates an aligner. Empty fields take their default values.
func NewAligner(config AlignerConfig) *Aligner {
	def := DefaultAlignerConfig()
	if config.Command == "" {
		config.Command = def.Command
	}
	if config.Dictionary == "" {
		config.Dictionary = def.Dictionary
	}
	if config.AcousticModel == "" {
		config.AcousticModel = def.AcousticModel
	}
	if config.OutputDir == "" {
		config.OutputDir = def.OutputDir
	}

	return &Aligner{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "aligner",
			"command":   config.Command,
		}),
	}
}

// AlignFiles aligns every .wav or .flac file in audioDir against the
// transcript of the same base name (<name>.txt) in textDir. It writes
// <name>.phn and <name>.wrd into the configured output directory and
// returns the alignments in file name order.
func (a *Aligner) AlignFiles(ctx context.Context, audioDir, textDir string) ([]AlignmentResult, error) {
	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":  "AlignFiles",
		"audio_dir": audioDir,
		"text_dir":  textDir,
	})

	audio, err := listAudio(audioDir)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio files in %s", audioDir)
	}

	corpus, err := os.MkdirTemp(a.config.TempDir, "napkit-corpus-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create corpus directory")
	}
	defer os.RemoveAll(corpus)

	aligned, err := os.MkdirTemp(a.config.TempDir, "napkit-aligned-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aligner output directory")
	}
	defer os.RemoveAll(aligned)

	names := make([]string, 0, len(audio))
	for _, path := range audio {
		name, err := stageRecording(corpus, path, textDir)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	logger.Debug("Staged corpus", logging.Fields{"recordings": len(names), "corpus": corpus})

	if err := a.run(ctx, corpus, aligned, logger); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	grids, err := findTextGrids(aligned)
	if err != nil {
		return nil, err
	}

	results := make([]AlignmentResult, 0, len(names))
	for _, name := range names {
		grid, ok := grids[name]
		if !ok {
			err := fmt.Errorf("aligner produced no TextGrid for %s", name)
			logger.Error(err, "Alignment incomplete")
			return nil, err
		}
		res, err := a.convert(name, grid)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}

	logger.Info("Aligned recordings", logging.Fields{"recordings": len(results), "output_dir": a.config.OutputDir})
	return results, nil
}

// Args returns the aligner arguments for a corpus and output directory.
func (a *Aligner) Args(corpus, out string) []string {
	args := []string{"align", "--clean", corpus, a.config.Dictionary, a.config.AcousticModel, out}
	return append(args, a.config.ExtraArgs...)
}

func (a *Aligner) run(ctx context.Context, corpus, out string, logger logging.Logger) error {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	args := a.Args(corpus, out)
	cmd := exec.CommandContext(ctx, a.config.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running aligner", logging.Fields{"args": strings.Join(args, " ")})

	if err := cmd.Run(); err != nil {
		logger.Error(err, "Aligner failed", logging.Fields{"stderr": stderr.String()})
		return fmt.Errorf("%s align failed: %w, stderr: %s", a.config.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// convert reads one TextGrid and writes its phone and word tiers.
func (a *Aligner) convert(name, grid string) (*AlignmentResult, error) {
	tg, err := ReadTextGrid(grid)
	if err != nil {
		return nil, err
	}

	phones, ok := tg.Tier("phones")
	if !ok {
		return nil, fmt.Errorf("%s: no phones tier", grid)
	}
	words, ok := tg.Tier("words")
	if !ok {
		return nil, fmt.Errorf("%s: no words tier", grid)
	}

	res := &AlignmentResult{
		Name:        name,
		PhonemeFile: filepath.Join(a.config.OutputDir, name+".phn"),
		WordFile:    filepath.Join(a.config.OutputDir, name+".wrd"),
		Phonemes:    phones.Intervals,
		Words:       words.Intervals,
	}
	if err := WriteAlignmentFile(res.PhonemeFile, res.Phonemes); err != nil {
		return nil, err
	}
	if err := WriteAlignmentFile(res.WordFile, res.Words); err != nil {
		return nil, err
	}
	return res, nil
}

func listAudio(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audio directory")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range audioExtensions {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// stageRecording copies the recording into the corpus and writes its
// transcript next to it as a .lab file.
func stageRecording(corpus, audioPath, textDir string) (string, error) {
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	transcript, err := os.ReadFile(filepath.Join(textDir, name+".txt"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("missing transcript for %s", base)
		}
		return "", errors.Wrapf(err, "failed to read transcript for %s", base)
	}

	if err := copyFile(audioPath, filepath.Join(corpus, base)); err != nil {
		return "", err
	}

	lab := strings.Join(strings.Fields(string(transcript)), " ") + "\n"
	if err := os.WriteFile(filepath.Join(corpus, name+".lab"), []byte(lab), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write transcript for %s", base)
	}
	return name, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "failed to open audio")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(err, "failed to stage audio")
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	return out.Close()
}

// findTextGrids maps base names to TextGrid paths anywhere under dir. The
// aligner nests output by speaker for some corpus layouts.
func findTextGrids(dir string) (map[string]string, error) {
	grids := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".TextGrid") {
			return nil
		}
		base := filepath.Base(path)
		grids[strings.TrimSuffix(base, filepath.Ext(base))] = path
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan aligner output")
	}
	return grids, nil
}
