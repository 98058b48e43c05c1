package config

import (
	"fmt"

	"github.com/RyanBlaney/napkit/algorithms/common"
	"github.com/RyanBlaney/napkit/algorithms/filters"
	"github.com/RyanBlaney/napkit/data"
	"github.com/RyanBlaney/napkit/features"
	"github.com/RyanBlaney/napkit/logging"
	"github.com/RyanBlaney/napkit/preprocessing"
	"github.com/RyanBlaney/napkit/transcode"
)

// LoggingConfig selects the global log level.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" toml:"level"`
}

// LogLevel returns the parsed level.
func (c LoggingConfig) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Level)
	return level
}

func (c LoggingConfig) validate() error {
	if _, ok := logging.ParseLevel(c.Level); !ok {
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	return nil
}

// FilterConfig configures the Butterworth filter applier. Fs, when
// positive, is shared by all trials; otherwise rates come from FsField.
type FilterConfig struct {
	Field         string    `json:"field" yaml:"field" toml:"field"`
	BType         string    `json:"btype" yaml:"btype" toml:"btype"`
	Wn            []float64 `json:"wn" yaml:"wn" toml:"wn"`
	FsField       string    `json:"fs_field" yaml:"fs_field" toml:"fs_field"`
	Fs            float64   `json:"fs" yaml:"fs" toml:"fs"`
	Order         int       `json:"order" yaml:"order" toml:"order"`
	ReturnFilters bool      `json:"return_filters" yaml:"return_filters" toml:"return_filters"`
}

// ButterConfig converts the section into applier options.
func (c FilterConfig) ButterConfig() (preprocessing.ButterConfig, error) {
	btype, err := filters.ParseBandType(c.BType)
	if err != nil {
		return preprocessing.ButterConfig{}, err
	}

	fs := data.RateField(c.FsField)
	if c.Fs > 0 {
		fs = data.Rate(c.Fs)
	}

	return preprocessing.ButterConfig{
		BType:         btype,
		Wn:            append([]float64(nil), c.Wn...),
		Fs:            fs,
		Order:         c.Order,
		ReturnFilters: c.ReturnFilters,
	}, nil
}

func (c FilterConfig) validate() error {
	if c.Field == "" {
		return fmt.Errorf("field must be set")
	}
	if _, err := filters.ParseBandType(c.BType); err != nil {
		return err
	}
	if len(c.Wn) == 0 || len(c.Wn) > 2 {
		return fmt.Errorf("wn needs one or two critical frequencies, got %d", len(c.Wn))
	}
	for _, w := range c.Wn {
		if w <= 0 {
			return fmt.Errorf("critical frequencies must be positive, got %g", w)
		}
	}
	if c.Order < 1 {
		return fmt.Errorf("order must be at least 1, got %d", c.Order)
	}
	if c.Fs < 0 {
		return fmt.Errorf("fs must not be negative, got %g", c.Fs)
	}
	if c.Fs == 0 && c.FsField == "" {
		return fmt.Errorf("either fs or fs_field must be set")
	}
	return nil
}

// NormalizeConfig configures channel normalization.
type NormalizeConfig struct {
	Field  string `json:"field" yaml:"field" toml:"field"`
	Method string `json:"method" yaml:"method" toml:"method"`
}

// NormalizationType returns the parsed method.
func (c NormalizeConfig) NormalizationType() (common.NormalizationType, error) {
	return common.ParseNormalizationType(c.Method)
}

func (c NormalizeConfig) validate() error {
	if c.Field == "" {
		return fmt.Errorf("field must be set")
	}
	_, err := c.NormalizationType()
	return err
}

// LabelsConfig sets the frame grid for label vectors.
type LabelsConfig struct {
	Fs     float64 `json:"fs" yaml:"fs" toml:"fs"`
	Length int     `json:"length" yaml:"length" toml:"length"`
}

// Options converts the section into label options.
func (c LabelsConfig) Options() features.LabelOptions {
	return features.LabelOptions{Fs: c.Fs, Length: c.Length}
}

func (c LabelsConfig) validate() error {
	if c.Fs <= 0 {
		return fmt.Errorf("fs must be positive, got %g", c.Fs)
	}
	if c.Length < 0 {
		return fmt.Errorf("length must not be negative, got %d", c.Length)
	}
	return nil
}

// AuditoryConfig configures the auditory spectrogram. Factor is a hair cell
// name such as "linear" or "sigmoid".
type AuditoryConfig struct {
	FrameLen     float64 `json:"frame_len" yaml:"frame_len" toml:"frame_len"`
	TC           float64 `json:"tc" yaml:"tc" toml:"tc"`
	Factor       string  `json:"factor" yaml:"factor" toml:"factor"`
	SigmoidScale float64 `json:"sigmoid_scale" yaml:"sigmoid_scale" toml:"sigmoid_scale"`
	Shift        float64 `json:"shift" yaml:"shift" toml:"shift"`
	Workers      int     `json:"workers" yaml:"workers" toml:"workers"`
}

// Model converts the section into model parameters.
func (c AuditoryConfig) Model() (features.AuditoryConfig, error) {
	factor, err := features.ParseHairCell(c.Factor)
	if err != nil {
		return features.AuditoryConfig{}, err
	}
	return features.AuditoryConfig{
		FrameLen:     c.FrameLen,
		TimeConstant: c.TC,
		Factor:       factor,
		SigmoidScale: c.SigmoidScale,
		Shift:        c.Shift,
		Workers:      c.Workers,
	}, nil
}

func (c AuditoryConfig) validate() error {
	m, err := c.Model()
	if err != nil {
		return err
	}
	return m.Validate()
}

// AlignerConfig configures the external forced aligner.
type AlignerConfig struct {
	Command       string   `json:"command" yaml:"command" toml:"command"`
	Dictionary    string   `json:"dictionary" yaml:"dictionary" toml:"dictionary"`
	AcousticModel string   `json:"acoustic_model" yaml:"acoustic_model" toml:"acoustic_model"`
	OutputDir     string   `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	TempDir       string   `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir"`
	Timeout       Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	ExtraArgs     []string `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
}

// Options converts the section into aligner options.
func (c AlignerConfig) Options() features.AlignerConfig {
	return features.AlignerConfig{
		Command:       c.Command,
		Dictionary:    c.Dictionary,
		AcousticModel: c.AcousticModel,
		OutputDir:     c.OutputDir,
		TempDir:       c.TempDir,
		Timeout:       c.Timeout.Duration,
		ExtraArgs:     append([]string(nil), c.ExtraArgs...),
	}
}

func (c AlignerConfig) validate() error {
	if c.Command == "" {
		return fmt.Errorf("command must be set")
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout.Duration)
	}
	return nil
}

// DecoderConfig configures audio loading.
type DecoderConfig struct {
	FFmpegPath  string   `json:"ffmpeg_path" yaml:"ffmpeg_path" toml:"ffmpeg_path"`
	FFprobePath string   `json:"ffprobe_path" yaml:"ffprobe_path" toml:"ffprobe_path"`
	Timeout     Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	MaxDuration Duration `json:"max_duration" yaml:"max_duration" toml:"max_duration"`
}

// Options converts the section into decoder options.
func (c DecoderConfig) Options() *transcode.DecoderConfig {
	return &transcode.DecoderConfig{
		FFmpegPath:  c.FFmpegPath,
		FFprobePath: c.FFprobePath,
		Timeout:     c.Timeout.Duration,
		MaxDuration: c.MaxDuration.Duration,
	}
}

func (c DecoderConfig) validate() error {
	return transcode.NewDecoder(c.Options()).ValidateConfig()
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	butter := preprocessing.DefaultButterConfig()
	auditory := features.DefaultAuditoryConfig()
	aligner := features.DefaultAlignerConfig()
	decoder := transcode.DefaultDecoderConfig()
	labels := features.DefaultLabelOptions()

	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Filter: FilterConfig{
			Field:   preprocessing.DefaultField,
			BType:   butter.BType.String(),
			Wn:      butter.Wn,
			FsField: "dataf",
			Order:   butter.Order,
		},
		Normalize: NormalizeConfig{Field: preprocessing.DefaultField, Method: common.ZScore.String()},
		Labels:    LabelsConfig{Fs: labels.Fs, Length: labels.Length},
		Auditory: AuditoryConfig{
			FrameLen:     auditory.FrameLen,
			TC:           auditory.TimeConstant,
			Factor:       auditory.Factor.String(),
			SigmoidScale: auditory.SigmoidScale,
			Shift:        auditory.Shift,
			Workers:      auditory.Workers,
		},
		Aligner: AlignerConfig{
			Command:       aligner.Command,
			Dictionary:    aligner.Dictionary,
			AcousticModel: aligner.AcousticModel,
			OutputDir:     aligner.OutputDir,
			Timeout:       Duration{aligner.Timeout},
		},
		Decoder: DecoderConfig{
			FFmpegPath:  decoder.FFmpegPath,
			FFprobePath: decoder.FFprobePath,
			Timeout:     Duration{decoder.Timeout},
		},
	}
}
