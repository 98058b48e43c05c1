// Package transcode loads audio files as mono float64 PCM. WAV and FLAC
// are decoded natively; every other format goes through ffmpeg.
package transcode

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/napkit/logging"
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source before downmixing
	Duration   time.Duration `json:"duration"`
	Format     string        `json:"format"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path" yaml:"ffmpeg_path" toml:"ffmpeg_path"`    // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path" yaml:"ffprobe_path" toml:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`                // Timeout for ffmpeg operations
	MaxDuration time.Duration `json:"max_duration" yaml:"max_duration" toml:"max_duration"` // Zero decodes everything
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Timeout:     2 * time.Minute,
	}
}

// Decoder turns audio files into AudioData
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file and downmixes it to mono. The format is
// chosen by extension: .wav and .flac are decoded in process, anything else
// is handed to ffmpeg.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	var (
		audio *AudioData
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".wav", ".wave":
		audio, err = decodeWAV(filename)
	case ".flac":
		audio, err = decodeFLAC(filename)
	default:
		audio, err = d.decodeWithFFmpeg(ctx, filename, logger)
	}
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return nil, err
	}

	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(audio.SampleRate))
		if limit < len(audio.PCM) {
			audio.PCM = audio.PCM[:limit]
		}
	}
	audio.Duration = samplesDuration(len(audio.PCM), audio.SampleRate)

	logger.Debug("Decoded audio file", logging.Fields{
		"format":      audio.Format,
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
		"samples":     len(audio.PCM),
	})
	return audio, nil
}

// downmix averages interleaved frames of channels samples into mono.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	mono := make([]float64, len(interleaved)/channels)
	for i := range mono {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

func samplesDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path must be set")
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", d.config.MaxDuration)
	}
	return nil
}
